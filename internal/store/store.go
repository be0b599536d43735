// Package store persists captured device configs to a deterministic
// tenant/device/timestamp path layout on disk and fingerprints them with
// SHA-256.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BuildPath returns the deterministic on-disk path for a backup, always
// derived from ts converted to UTC:
//
//	<root>/<tenant>/<device>/<YYYY>/<MM>/<DD>/<YYYYMMDD>T<HHMMSS>Z.cfg
func BuildPath(root, tenantID, deviceID string, ts time.Time) string {
	u := ts.UTC()
	datePart := u.Format("2006/01/02")
	filename := u.Format("20060102T150405Z") + ".cfg"
	return filepath.Join(root, tenantID, deviceID, datePart, filename)
}

// Save writes configText (UTF-8) to the deterministic path for
// (tenantID, deviceID, ts), creating parent directories as needed, and
// returns the path, the lowercase hex SHA-256 digest of the encoded bytes,
// and the byte length. Two backups of the same device in the same second
// land on the same path; this is an allowed overwrite, not a correctness
// concern.
func Save(root, tenantID, deviceID string, ts time.Time, configText string) (path string, sha256Hex string, size int, err error) {
	path = BuildPath(root, tenantID, deviceID, ts)

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", 0, fmt.Errorf("create backup directory: %w", err)
	}

	encoded := []byte(configText)
	digest := sha256.Sum256(encoded)
	sha256Hex = hex.EncodeToString(digest[:])

	tmp := path + fmt.Sprintf(".tmp-%d", time.Now().UnixNano())
	if err = os.WriteFile(tmp, encoded, 0o644); err != nil {
		return "", "", 0, fmt.Errorf("write backup file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", "", 0, fmt.Errorf("finalize backup file: %w", err)
	}

	return path, sha256Hex, len(encoded), nil
}
