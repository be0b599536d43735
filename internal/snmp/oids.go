// Package snmp polls monitored devices for liveness and inventory metrics
// over SNMP v2c/v3 using gosnmp.
package snmp

// Standard OIDs polled on every device regardless of vendor.
const (
	UptimeOID          = "1.3.6.1.2.1.1.3.0"
	CPUTableOID        = "1.3.6.1.2.1.25.3.3.1.2"
	MemTotalOID        = "1.3.6.1.4.1.2021.4.5.0"
	MemAvailOID        = "1.3.6.1.4.1.2021.4.6.0"
	InventoryModelOID  = "1.3.6.1.2.1.47.1.1.1.1.13"
	InventorySerialOID = "1.3.6.1.2.1.47.1.1.1.1.11"
)

// Vendor-specific firmware/serial OIDs. Firmware is read only from these;
// the serial OID is read only when the ENTITY-MIB walk found no serial.
const (
	fortigateFirmwareOID = "1.3.6.1.4.1.12356.101.4.1.1.0"
	fortigateSerialOID   = "1.3.6.1.4.1.12356.101.4.1.3.0"
	mikrotikFirmwareOID  = "1.3.6.1.4.1.14988.1.1.4.3.0"
	mikrotikSerialOID    = "1.3.6.1.4.1.14988.1.1.7.3.0"
)

// VendorInventoryOverride returns a vendor-specific firmware/serial OID pair
// consulted after the standard ENTITY-MIB walk, or ("", "") if the vendor
// has no override.
func VendorInventoryOverride(vendor string) (firmwareOID, serialOID string) {
	switch vendor {
	case "fortigate":
		return fortigateFirmwareOID, fortigateSerialOID
	case "mikrotik":
		return mikrotikFirmwareOID, mikrotikSerialOID
	default:
		return "", ""
	}
}
