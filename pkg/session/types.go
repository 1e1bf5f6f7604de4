package session

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ump-ci/umpci-go/pkg/ci"
)

// Session errors.
var (
	ErrNotInitialized = errors.New("session not initialized")
	ErrInvalidConfig  = errors.New("invalid session configuration")
	ErrDeviceNotFound = errors.New("device not found")
)

// minMaxSysExSize is the smallest receivable SysEx size MIDI-CI allows a
// device to advertise.
const minMaxSysExSize = 128

// Config carries the local MIDI-CI identity and the session's behavior
// switches. Zero values are not usable; start from DefaultConfig.
type Config struct {
	// Numeric identity encoded into discovery messages.
	ManufacturerID uint32 `yaml:"manufacturer_id"`
	FamilyID       uint16 `yaml:"family_id"`
	ModelID        uint16 `yaml:"model_id"`
	VersionID      uint32 `yaml:"version_id"`

	// Display identity. Discovery carries only the numeric fields; these
	// name the local device in logs and user interfaces.
	Manufacturer string `yaml:"manufacturer"`
	Family       string `yaml:"family"`
	Model        string `yaml:"model"`
	Version      string `yaml:"version"`

	// SerialNumber is the product instance ID returned by endpoint
	// replies. Must be non-empty 7-bit ASCII.
	SerialNumber string `yaml:"serial_number"`

	// MaxSysExSize is the receivable SysEx limit advertised in discovery
	// messages. Every byte of its little-endian encoding must stay below
	// 0x80 to survive the 7-bit wire format.
	MaxSysExSize uint32 `yaml:"max_sysex_size"`

	// Category support advertised in discovery messages. Inquiries for an
	// unsupported category are answered with a NAK.
	ProfilesSupported         bool `yaml:"profiles_supported"`
	PropertyExchangeSupported bool `yaml:"property_exchange_supported"`
	ProcessInquirySupported   bool `yaml:"process_inquiry_supported"`

	// Follow-up inquiries sent automatically when a new device is
	// discovered.
	AutoEndpointInquiry     bool `yaml:"auto_endpoint_inquiry"`
	AutoProfileInquiry      bool `yaml:"auto_profile_inquiry"`
	AutoPECapabilityInquiry bool `yaml:"auto_pe_capability_inquiry"`

	// UMP addressing bytes carried in discovery messages.
	OutputPathID  uint8 `yaml:"output_path_id"`
	FunctionBlock uint8 `yaml:"function_block"`

	// SimultaneousRequests is the property exchange concurrency advertised
	// in PE capability replies.
	SimultaneousRequests uint8 `yaml:"simultaneous_requests"`
}

// DefaultConfig returns the virtual keyboard's stock identity with every
// capability and auto-inquiry enabled.
func DefaultConfig() Config {
	return Config{
		ManufacturerID:            ci.DefaultManufacturerID,
		FamilyID:                  ci.DefaultFamilyID,
		ModelID:                   ci.DefaultModelID,
		VersionID:                 ci.DefaultVersionID,
		Manufacturer:              "atsushieno",
		Family:                    "UMP",
		Model:                     "UMP Keyboard",
		Version:                   "1.0",
		SerialNumber:              "UMP-KB-001",
		MaxSysExSize:              ci.DefaultMaxSysExSize,
		ProfilesSupported:         true,
		PropertyExchangeSupported: true,
		ProcessInquirySupported:   true,
		AutoEndpointInquiry:       true,
		AutoProfileInquiry:        true,
		AutoPECapabilityInquiry:   true,
		SimultaneousRequests:      4,
	}
}

// DeviceDetails returns the numeric identity in wire form.
func (c *Config) DeviceDetails() ci.DeviceDetails {
	return ci.DeviceDetails{
		Manufacturer: c.ManufacturerID,
		Family:       c.FamilyID,
		Model:        c.ModelID,
		Version:      c.VersionID,
	}
}

// Capabilities returns the category support bitmap advertised in
// discovery messages.
func (c *Config) Capabilities() ci.Capability {
	var caps ci.Capability
	if c.ProfilesSupported {
		caps |= ci.CapabilityProfileConfiguration
	}
	if c.PropertyExchangeSupported {
		caps |= ci.CapabilityPropertyExchange
	}
	if c.ProcessInquirySupported {
		caps |= ci.CapabilityProcessInquiry
	}
	return caps
}

// Validate checks the config before a session is built from it.
func (c *Config) Validate() error {
	if err := c.DeviceDetails().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Manufacturer == "" || c.Model == "" || c.Version == "" {
		return fmt.Errorf("%w: display identity must not be empty", ErrInvalidConfig)
	}
	if c.SerialNumber == "" || !sevenBitCleanString(c.SerialNumber) {
		return fmt.Errorf("%w: serial number must be non-empty 7-bit ASCII", ErrInvalidConfig)
	}
	if c.MaxSysExSize < minMaxSysExSize {
		return fmt.Errorf("%w: max sysex size %d below minimum %d", ErrInvalidConfig, c.MaxSysExSize, minMaxSysExSize)
	}
	if !sevenBitCleanSize(c.MaxSysExSize) {
		return fmt.Errorf("%w: max sysex size %#x not 7-bit clean", ErrInvalidConfig, c.MaxSysExSize)
	}
	if c.OutputPathID > 0x7F || c.FunctionBlock > 0x7F {
		return fmt.Errorf("%w: output path / function block must be 7-bit", ErrInvalidConfig)
	}
	if c.SimultaneousRequests > 0x7F {
		return fmt.Errorf("%w: simultaneous requests must be 7-bit", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads a YAML config file, overlaying its values on the
// defaults. Keys missing from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// sevenBitCleanSize mirrors the codec's rule for the discovery size field:
// each byte of the value stays below 0x80.
func sevenBitCleanSize(size uint32) bool {
	for i := 0; i < 4; i++ {
		if byte(size>>(8*uint(i)))&0x80 != 0 {
			return false
		}
	}
	return true
}

// sevenBitCleanString reports whether every byte of s stays below 0x80.
func sevenBitCleanString(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}
