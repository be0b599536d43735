package store

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBuildPathDeterminism(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{
			name: "UTC timestamp",
			ts:   time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC),
			want: filepath.Join("root", "T1", "D1", "2024", "05", "01", "20240501T123456Z.cfg"),
		},
		{
			name: "non-UTC timezone normalizes to UTC",
			ts:   time.Date(2024, 5, 1, 15, 34, 56, 0, time.FixedZone("+0300", 3*60*60)),
			want: filepath.Join("root", "T1", "D1", "2024", "05", "01", "20240501T123456Z.cfg"),
		},
		{
			name: "sub-second precision is stripped by format",
			ts:   time.Date(2024, 5, 1, 12, 34, 56, 999999000, time.UTC),
			want: filepath.Join("root", "T1", "D1", "2024", "05", "01", "20240501T123456Z.cfg"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPath("root", "T1", "D1", tt.ts)
			if got != tt.want {
				t.Errorf("BuildPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSaveDigestIntegrity(t *testing.T) {
	dir := t.TempDir()
	text := "config-version=simulated\nconfig system global\nset hostname FortiGate-Sim\nend\n"
	ts := time.Date(2024, 5, 1, 12, 34, 56, 1000, time.UTC)

	path, digest, size, err := Save(dir, "T1", "D1", ts, text)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	wantPath := filepath.Join(dir, "T1", "D1", "2024", "05", "01", "20240501T123456Z.cfg")
	if path != wantPath {
		t.Errorf("path = %q, want %q", path, wantPath)
	}

	sum := sha256.Sum256([]byte(text))
	wantDigest := hex.EncodeToString(sum[:])
	if digest != wantDigest {
		t.Errorf("digest = %q, want %q", digest, wantDigest)
	}
	if size != len(text) {
		t.Errorf("size = %d, want %d", size, len(text))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != text {
		t.Errorf("file content = %q, want %q", string(data), text)
	}
}

func TestSaveOverwritesSameSecond(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC)

	path1, _, _, err := Save(dir, "T1", "D1", ts, "first")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	path2, digest2, _, err := Save(dir, "T1", "D1", ts, "second")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path1 != path2 {
		t.Fatalf("expected same path for same-second backups, got %q and %q", path1, path2)
	}

	data, err := os.ReadFile(path2)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected overwrite to win, got %q", string(data))
	}

	sum := sha256.Sum256([]byte("second"))
	if digest2 != hex.EncodeToString(sum[:]) {
		t.Errorf("digest mismatch after overwrite")
	}
}
