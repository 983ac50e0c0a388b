package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"gpu-metrics-reporter/internal/discovery"
	"gpu-metrics-reporter/internal/report"
)

// Metrics holds the gauges written after a run. It uses a custom registry
// so only this run's values end up in the textfile.
type Metrics struct {
	Registry *prometheus.Registry

	DevicesFound       prometheus.Gauge
	DevicesReported    prometheus.Gauge
	GfxActivity        *prometheus.GaugeVec
	UmcActivity        *prometheus.GaugeVec
	SocketPower        *prometheus.GaugeVec
	HotspotTemperature *prometheus.GaugeVec
	GfxBusy            *prometheus.GaugeVec
	Partition          *prometheus.GaugeVec
	QueryFailures      *prometheus.CounterVec
}

var _ report.Recorder = (*Metrics)(nil)

// NewMetrics creates all metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	device := []string{"device", "vendor"}

	m := &Metrics{
		Registry: reg,

		DevicesFound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "amdsmi_report_devices_found",
			Help: "Number of GPU devices discovered by the last run.",
		}),
		DevicesReported: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "amdsmi_report_devices_reported",
			Help: "Number of GPU devices fully reported by the last run.",
		}),
		GfxActivity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "amdsmi_gpu_gfx_activity_percent",
			Help: "Average graphics engine activity.",
		}, device),
		UmcActivity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "amdsmi_gpu_umc_activity_percent",
			Help: "Average memory controller activity.",
		}, device),
		SocketPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "amdsmi_gpu_socket_power_watts",
			Help: "Average socket power.",
		}, device),
		HotspotTemperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "amdsmi_gpu_hotspot_temperature_celsius",
			Help: "Hotspot temperature.",
		}, device),
		GfxBusy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "amdsmi_gpu_gfx_busy_percent",
			Help: "Graphics busy percentage per instance of the active partition.",
		}, []string{"device", "partition", "instance"}),
		Partition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "amdsmi_gpu_current_partition",
			Help: "Currently active compute partition id.",
		}, []string{"device"}),
		QueryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amdsmi_report_query_failures_total",
			Help: "Per-device queries that did not return success.",
		}, []string{"query"}),
	}

	reg.MustRegister(
		m.DevicesFound,
		m.DevicesReported,
		m.GfxActivity,
		m.UmcActivity,
		m.SocketPower,
		m.HotspotTemperature,
		m.GfxBusy,
		m.Partition,
		m.QueryFailures,
	)
	return m
}

// ObserveDevice records the values of a reported device.
func (m *Metrics) ObserveDevice(dev discovery.Device, s report.Sample) {
	idx := strconv.Itoa(dev.Index)
	m.GfxActivity.WithLabelValues(idx, s.Vendor).Set(float64(s.Metrics.AverageGfxActivity))
	m.UmcActivity.WithLabelValues(idx, s.Vendor).Set(float64(s.Metrics.AverageUmcActivity))
	m.SocketPower.WithLabelValues(idx, s.Vendor).Set(float64(s.Metrics.AverageSocketPower))
	m.HotspotTemperature.WithLabelValues(idx, s.Vendor).Set(float64(s.Metrics.TemperatureHotspot))
	m.Partition.WithLabelValues(idx).Set(float64(s.PartitionID))

	pid := strconv.FormatUint(uint64(s.PartitionID), 10)
	for inst, busy := range s.Metrics.XcpStats[s.PartitionID].GfxBusyInst {
		m.GfxBusy.WithLabelValues(idx, pid, strconv.Itoa(inst)).Set(float64(busy))
	}
}

// ObserveFailure counts a failed query.
func (m *Metrics) ObserveFailure(_ discovery.Device, query string) {
	m.QueryFailures.WithLabelValues(query).Inc()
}

// ObserveSummary records run-level counts.
func (m *Metrics) ObserveSummary(s report.Summary) {
	m.DevicesFound.Set(float64(s.Devices))
	m.DevicesReported.Set(float64(s.Reported))
}

// WriteTextfile writes the registry in the text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
