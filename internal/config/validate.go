package config

import (
	"fmt"

	"gpu-metrics-reporter/internal/discovery"
	"gpu-metrics-reporter/internal/logging"
)

// maxSupported bounds max_sockets and max_devices.
const maxSupported = 1024

// Validate returns an error describing the first invalid field found.
func (c Config) Validate() error {
	switch c.Enumeration {
	case discovery.StrategyHierarchical, discovery.StrategyFlat:
	default:
		return fmt.Errorf("config: enumeration must be %q or %q, got %q",
			discovery.StrategyHierarchical, discovery.StrategyFlat, c.Enumeration)
	}

	switch c.Library {
	case LibraryAMDSMI:
	case LibraryFixture:
		if c.FixturePath == "" {
			return fmt.Errorf("config: library %q requires a fixture path", LibraryFixture)
		}
	default:
		return fmt.Errorf("config: library must be %q or %q, got %q", LibraryAMDSMI, LibraryFixture, c.Library)
	}

	if c.MaxSockets < 1 || c.MaxSockets > maxSupported {
		return fmt.Errorf("config: max_sockets must be 1-%d, got %d", maxSupported, c.MaxSockets)
	}
	if c.MaxDevices < 1 || c.MaxDevices > maxSupported {
		return fmt.Errorf("config: max_devices must be 1-%d, got %d", maxSupported, c.MaxDevices)
	}

	if c.ShowUUID && c.Enumeration != discovery.StrategyHierarchical {
		return fmt.Errorf("config: show_uuid requires the %q enumeration", discovery.StrategyHierarchical)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("config: log_format must be %q or %q, got %q", logging.FormatText, logging.FormatJSON, c.LogFormat)
	}
	return nil
}

// VirtualizationMode reports whether the virtualization mode line is
// printed; only the hierarchical strategy queries it.
func (c Config) VirtualizationMode() bool {
	return c.Enumeration == discovery.StrategyHierarchical
}
