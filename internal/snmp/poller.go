package snmp

import (
	"math"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/sirupsen/logrus"

	"github.com/celebigilfatih/netdevworker/internal/controlplane"
	"github.com/celebigilfatih/netdevworker/internal/model"
	"github.com/celebigilfatih/netdevworker/pkg/util"
)

// Poller lists active devices from the control plane and polls each over
// SNMP v2c/v3 for a liveness/resource heartbeat plus inventory.
type Poller struct {
	CP         *controlplane.Client
	Timeout    time.Duration
	Retries    int
	BatchLimit int
}

func New(cp *controlplane.Client, timeoutSec, retries, batchLimit int) *Poller {
	return &Poller{
		CP:         cp,
		Timeout:    time.Duration(timeoutSec) * time.Second,
		Retries:    retries,
		BatchLimit: batchLimit,
	}
}

// RunOnce lists every active device, page by page, and polls each. Any
// per-device error is swallowed so the remaining devices are still polled.
func (p *Poller) RunOnce() {
	offset := 0
	for {
		devices, err := p.CP.ListActiveDevices(p.BatchLimit, offset)
		if err != nil {
			util.WithField("error", err).Warn("failed to list active devices")
			return
		}
		if len(devices) == 0 {
			return
		}
		for _, d := range devices {
			p.pollDevice(d)
		}
		if len(devices) < p.BatchLimit {
			return
		}
		offset += p.BatchLimit
	}
}

func (p *Poller) pollDevice(d model.Device) {
	log := util.WithDevice(d.ID, d.TenantID)

	cfg, err := p.CP.GetSnmpConfig(d.ID)
	if err != nil {
		log.WithField("error", err).Warn("failed to fetch snmp config")
		return
	}

	client := p.newTarget(d.MgmtIP, cfg)
	if err := client.Connect(); err != nil {
		log.WithField("error", err).Warn("failed to connect over snmp")
		return
	}
	defer client.Conn.Close()

	uptimeTicks, cpuPercent, memUsedPercent := collectMetrics(client, log)
	if err := p.CP.ReportMetrics(d.TenantID, d.ID, uptimeTicks, cpuPercent, memUsedPercent); err != nil {
		log.WithField("error", err).Warn("failed to report metrics")
	}

	modelStr, firmware, serial := collectInventory(client, d.Vendor, log)
	if err := p.CP.ReportInventory(d.TenantID, d.ID, modelStr, firmware, serial); err != nil {
		log.WithField("error", err).Warn("failed to report inventory")
	}
}

func (p *Poller) newTarget(host string, cfg model.SnmpConfig) *gosnmp.GoSNMP {
	g := &gosnmp.GoSNMP{
		Target:  host,
		Port:    161,
		Timeout: p.Timeout,
		Retries: p.Retries,
	}

	if cfg.V3 != nil && cfg.V3.Username != "" {
		g.Version = gosnmp.Version3
		g.SecurityModel = gosnmp.UserSecurityModel
		authProto := gosnmp.SHA
		if strings.EqualFold(cfg.V3.AuthProtocol, "md5") {
			authProto = gosnmp.MD5
		}
		privProto := gosnmp.AES
		if strings.EqualFold(cfg.V3.PrivProtocol, "des") {
			privProto = gosnmp.DES
		}
		msgFlags := gosnmp.NoAuthNoPriv
		if cfg.V3.AuthKey != "" {
			msgFlags = gosnmp.AuthNoPriv
		}
		if cfg.V3.PrivKey != "" {
			msgFlags = gosnmp.AuthPriv
		}
		g.MsgFlags = msgFlags
		g.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 cfg.V3.Username,
			AuthenticationProtocol:   authProto,
			AuthenticationPassphrase: cfg.V3.AuthKey,
			PrivacyProtocol:          privProto,
			PrivacyPassphrase:        cfg.V3.PrivKey,
		}
	} else {
		g.Version = gosnmp.Version2c
		g.Community = cfg.Community
	}
	return g
}

// collectMetrics polls uptime, average CPU, and used-memory percent,
// substituting zeros for all three when every one of them is absent (a bare
// liveness heartbeat per device).
func collectMetrics(client *gosnmp.GoSNMP, log *logrus.Entry) (uptimeTicks, cpuPercent, memUsedPercent *int) {
	if pkt, err := client.Get([]string{UptimeOID}); err == nil && len(pkt.Variables) > 0 {
		if v, ok := asInt(pkt.Variables[0]); ok {
			uptimeTicks = &v
		}
	}

	var cpuSamples []int
	_ = client.Walk(CPUTableOID, func(pdu gosnmp.SnmpPDU) error {
		if v, ok := asInt(pdu); ok {
			cpuSamples = append(cpuSamples, v)
		}
		return nil
	})
	if len(cpuSamples) > 0 {
		avg := averageCPU(cpuSamples)
		cpuPercent = &avg
	}

	if total, ok := getInt(client, MemTotalOID); ok && total > 0 {
		if avail, ok := getInt(client, MemAvailOID); ok {
			used := memUsedPercentOf(total, avail)
			memUsedPercent = &used
		}
	}

	if uptimeTicks == nil && cpuPercent == nil && memUsedPercent == nil {
		zero := 0
		uptimeTicks, cpuPercent, memUsedPercent = &zero, &zero, &zero
	}
	return
}

// averageCPU rounds the mean of samples half-to-even, matching the tie
// convention IEEE 754 and most SNMP monitoring tooling use.
func averageCPU(samples []int) int {
	sum := 0
	for _, v := range samples {
		sum += v
	}
	return int(math.RoundToEven(float64(sum) / float64(len(samples))))
}

// memUsedPercentOf derives used-memory percent from total/available gauge
// readings, clamped to [0, 100] since agents occasionally report avail >
// total during a counter wrap.
func memUsedPercentOf(total, avail int) int {
	used := int(math.RoundToEven(float64(total-avail) * 100 / float64(total)))
	if used < 0 {
		used = 0
	}
	if used > 100 {
		used = 100
	}
	return used
}

// collectInventory walks the standard ENTITY-MIB model/serial tables, then
// applies vendor-specific firmware (and, if still missing, serial) overrides.
func collectInventory(client *gosnmp.GoSNMP, vendor string, log *logrus.Entry) (modelStr, firmware, serial string) {
	modelStr = firstNonEmptyWalk(client, InventoryModelOID)
	serial = firstNonEmptyWalk(client, InventorySerialOID)

	fwOID, serialOID := VendorInventoryOverride(vendor)
	if fwOID != "" {
		if v, ok := getString(client, fwOID); ok && v != "" {
			firmware = v
		}
	}
	if serial == "" && serialOID != "" {
		if v, ok := getString(client, serialOID); ok && v != "" {
			serial = v
		}
	}
	return
}

func firstNonEmptyWalk(client *gosnmp.GoSNMP, oid string) string {
	var found string
	_ = client.Walk(oid, func(pdu gosnmp.SnmpPDU) error {
		if found != "" {
			return nil
		}
		if s := asString(pdu); s != "" {
			found = s
		}
		return nil
	})
	return found
}

func getInt(client *gosnmp.GoSNMP, oid string) (int, bool) {
	pkt, err := client.Get([]string{oid})
	if err != nil || len(pkt.Variables) == 0 {
		return 0, false
	}
	return asInt(pkt.Variables[0])
}

func getString(client *gosnmp.GoSNMP, oid string) (string, bool) {
	pkt, err := client.Get([]string{oid})
	if err != nil || len(pkt.Variables) == 0 {
		return "", false
	}
	s := asString(pkt.Variables[0])
	return s, s != ""
}

func asInt(pdu gosnmp.SnmpPDU) (int, bool) {
	switch v := pdu.Value.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	default:
		return 0, false
	}
}

func asString(pdu gosnmp.SnmpPDU) string {
	switch v := pdu.Value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return ""
	}
}
