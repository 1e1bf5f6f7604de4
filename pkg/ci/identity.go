package ci

import (
	"fmt"
	"strings"
)

// Default local identity values. Overridable through session configuration.
const (
	// DefaultManufacturerID is the 3-byte System Exclusive manufacturer ID.
	DefaultManufacturerID uint32 = 0x654321

	// DefaultFamilyID is the device family number.
	DefaultFamilyID uint16 = 0x4321

	// DefaultModelID is the family model number.
	DefaultModelID uint16 = 0x765

	// DefaultVersionID is the software revision level.
	DefaultVersionID uint32 = 0x00000001

	// DefaultMaxSysExSize is the receivable maximum SysEx size advertised
	// in discovery messages.
	DefaultMaxSysExSize uint32 = 4096
)

// DeviceDetails carries the numeric device identity fields exchanged in
// discovery messages. Every byte of every field must be 7-bit clean.
type DeviceDetails struct {
	Manufacturer uint32 // 3-byte SysEx manufacturer ID
	Family       uint16
	Model        uint16
	Version      uint32
}

// Validate checks that all fields survive 7-bit wire encoding.
func (d DeviceDetails) Validate() error {
	if !sevenBitClean(uint64(d.Manufacturer), 3) {
		return fmt.Errorf("%w: manufacturer %#x", ErrNotSevenBit, d.Manufacturer)
	}
	if !sevenBitClean(uint64(d.Family), 2) {
		return fmt.Errorf("%w: family %#x", ErrNotSevenBit, d.Family)
	}
	if !sevenBitClean(uint64(d.Model), 2) {
		return fmt.Errorf("%w: model %#x", ErrNotSevenBit, d.Model)
	}
	if !sevenBitClean(uint64(d.Version), 4) {
		return fmt.Errorf("%w: version %#x", ErrNotSevenBit, d.Version)
	}
	return nil
}

// DefaultDeviceDetails returns the default numeric identity.
func DefaultDeviceDetails() DeviceDetails {
	return DeviceDetails{
		Manufacturer: DefaultManufacturerID,
		Family:       DefaultFamilyID,
		Model:        DefaultModelID,
		Version:      DefaultVersionID,
	}
}

// Capability is the capability inquiry category bitmap exchanged in
// discovery messages.
type Capability uint8

const (
	// CapabilityProfileConfiguration indicates profile configuration support.
	CapabilityProfileConfiguration Capability = 0x04

	// CapabilityPropertyExchange indicates property exchange support.
	CapabilityPropertyExchange Capability = 0x08

	// CapabilityProcessInquiry indicates process inquiry support.
	CapabilityProcessInquiry Capability = 0x10

	// CapabilityThreeP combines profile configuration, property exchange
	// and process inquiry.
	CapabilityThreeP = CapabilityProfileConfiguration |
		CapabilityPropertyExchange |
		CapabilityProcessInquiry
)

// Has reports whether all bits of c2 are set.
func (c Capability) Has(c2 Capability) bool {
	return c&c2 == c2
}

// String returns a pipe-separated list of capability names.
func (c Capability) String() string {
	var parts []string
	if c.Has(CapabilityProfileConfiguration) {
		parts = append(parts, "PROFILES")
	}
	if c.Has(CapabilityPropertyExchange) {
		parts = append(parts, "PE")
	}
	if c.Has(CapabilityProcessInquiry) {
		parts = append(parts, "PI")
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// ProfileID identifies a MIDI-CI profile (5 bytes, 7-bit clean).
type ProfileID [5]byte

// GMLevel1Profile is the General MIDI Level 1 standard defined profile.
var GMLevel1Profile = ProfileID{0x7E, 0x00, 0x00, 0x00, 0x01}

// Validate checks that all profile ID bytes are 7-bit clean.
func (p ProfileID) Validate() error {
	for _, b := range p {
		if b > 0x7F {
			return fmt.Errorf("%w: profile ID %v", ErrNotSevenBit, p)
		}
	}
	return nil
}

// String formats the profile ID as colon-separated hex bytes.
func (p ProfileID) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X", p[0], p[1], p[2], p[3], p[4])
}

// sevenBitClean reports whether the low n bytes of v all stay below 0x80
// and no higher bytes are set.
func sevenBitClean(v uint64, n int) bool {
	for i := 0; i < n; i++ {
		if byte(v>>(8*uint(i)))&0x80 != 0 {
			return false
		}
	}
	return v>>(8*uint(n)) == 0
}

// sevenBitCleanBytes reports whether every byte stays below 0x80.
func sevenBitCleanBytes(data []byte) bool {
	for _, b := range data {
		if b&0x80 != 0 {
			return false
		}
	}
	return true
}
