// Package fixture implements smi.Interface on top of a host described in
// YAML, so the reporter can run without AMD hardware or privileges.
//
// A host file looks like:
//
//	sockets:
//	  - processors:
//	      - type: amd_gpu
//	        uuid: 5cff74a1-0000-1000-80a5-d4a9b4f1c2e3
//	        vendor: Advanced Micro Devices Inc. [AMD/ATI]
//	        virtualization_mode: 1
//	        metrics:
//	          average_gfx_activity: 42
//	          xcp_stats:
//	            - gfx_busy_inst: [10, 20, 30, 40]
//	        kfd:
//	          current_partition_id: 0
//	        failures:
//	          metrics: ERROR_NO_PERM
//
// Failures map a query name to the status that query returns. Recognised
// queries are init, sockets, processors, type, uuid, vendor_name,
// virtualization_mode, metrics and kfd_info.
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gpu-metrics-reporter/internal/smi"
)

// Query names accepted in failure maps.
const (
	QueryInit               = "init"
	QuerySockets            = "sockets"
	QueryProcessors         = "processors"
	QueryType               = "type"
	QueryUUID               = "uuid"
	QueryVendorName         = "vendor_name"
	QueryVirtualizationMode = "virtualization_mode"
	QueryMetrics            = "metrics"
	QueryKFDInfo            = "kfd_info"
)

var hostQueries = map[string]bool{QueryInit: true, QuerySockets: true}

var socketQueries = map[string]bool{QueryProcessors: true}

var processorQueries = map[string]bool{
	QueryType:               true,
	QueryUUID:               true,
	QueryVendorName:         true,
	QueryVirtualizationMode: true,
	QueryMetrics:            true,
	QueryKFDInfo:            true,
}

// Host is the top level of a fixture file.
type Host struct {
	Sockets  []Socket          `yaml:"sockets"`
	Failures map[string]string `yaml:"failures,omitempty"`
}

// Socket groups processors.
type Socket struct {
	Processors []Processor       `yaml:"processors"`
	Failures   map[string]string `yaml:"failures,omitempty"`
}

// Processor describes one managed device and the values its queries return.
type Processor struct {
	Type               string            `yaml:"type"`
	UUID               string            `yaml:"uuid,omitempty"`
	Vendor             string            `yaml:"vendor,omitempty"`
	VirtualizationMode uint32            `yaml:"virtualization_mode,omitempty"`
	Metrics            Metrics           `yaml:"metrics"`
	KFD                KFD               `yaml:"kfd"`
	Failures           map[string]string `yaml:"failures,omitempty"`
}

// Metrics mirrors smi.GPUMetrics with variable-length partition stats.
type Metrics struct {
	TemperatureHotspot uint16     `yaml:"temperature_hotspot,omitempty"`
	AverageGfxActivity uint16     `yaml:"average_gfx_activity"`
	AverageUmcActivity uint16     `yaml:"average_umc_activity,omitempty"`
	AverageSocketPower uint16     `yaml:"average_socket_power,omitempty"`
	XcpStats           []XcpStats `yaml:"xcp_stats,omitempty"`
}

// XcpStats holds up to smi.MaxNumXcc busy counters.
type XcpStats struct {
	GfxBusyInst []uint32 `yaml:"gfx_busy_inst"`
}

// KFD mirrors smi.KFDInfo.
type KFD struct {
	KfdID              uint64 `yaml:"kfd_id,omitempty"`
	NodeID             uint32 `yaml:"node_id,omitempty"`
	CurrentPartitionID uint32 `yaml:"current_partition_id"`
}

// Load reads and validates a host file.
func Load(path string) (*Host, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a host description.
func Parse(data []byte) (*Host, error) {
	var host Host
	if err := yaml.Unmarshal(data, &host); err != nil {
		return nil, fmt.Errorf("fixture: decode: %w", err)
	}
	if err := host.Validate(); err != nil {
		return nil, err
	}
	return &host, nil
}

// Validate checks processor types, failure names and array sizes.
func (h *Host) Validate() error {
	if err := validateFailures("host", h.Failures, hostQueries); err != nil {
		return err
	}
	for s, socket := range h.Sockets {
		where := fmt.Sprintf("socket %d", s)
		if err := validateFailures(where, socket.Failures, socketQueries); err != nil {
			return err
		}
		for p, proc := range socket.Processors {
			where := fmt.Sprintf("socket %d processor %d", s, p)
			if _, err := smi.ParseProcessorType(proc.Type); err != nil {
				return fmt.Errorf("fixture: %s: %w", where, err)
			}
			if err := validateFailures(where, proc.Failures, processorQueries); err != nil {
				return err
			}
			if len(proc.Metrics.XcpStats) > smi.MaxNumXcp {
				return fmt.Errorf("fixture: %s: %d xcp_stats entries, at most %d supported",
					where, len(proc.Metrics.XcpStats), smi.MaxNumXcp)
			}
			for x, stats := range proc.Metrics.XcpStats {
				if len(stats.GfxBusyInst) > smi.MaxNumXcc {
					return fmt.Errorf("fixture: %s: xcp_stats[%d] has %d gfx_busy_inst entries, at most %d supported",
						where, x, len(stats.GfxBusyInst), smi.MaxNumXcc)
				}
			}
		}
	}
	return nil
}

func validateFailures(where string, failures map[string]string, allowed map[string]bool) error {
	for query, status := range failures {
		if !allowed[query] {
			return fmt.Errorf("fixture: %s: failure for unsupported query %q", where, query)
		}
		ret, err := smi.ParseReturn(status)
		if err != nil {
			return fmt.Errorf("fixture: %s: %w", where, err)
		}
		if ret == smi.SUCCESS {
			return fmt.Errorf("fixture: %s: failure for %q must not be SUCCESS", where, query)
		}
	}
	return nil
}

func (m Metrics) toSMI() smi.GPUMetrics {
	out := smi.GPUMetrics{
		TemperatureHotspot: m.TemperatureHotspot,
		AverageGfxActivity: m.AverageGfxActivity,
		AverageUmcActivity: m.AverageUmcActivity,
		AverageSocketPower: m.AverageSocketPower,
	}
	for x, stats := range m.XcpStats {
		copy(out.XcpStats[x].GfxBusyInst[:], stats.GfxBusyInst)
	}
	return out
}
