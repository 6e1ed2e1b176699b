package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	PluginStatusSuccess = "success"
	PluginStatusFailure = "failure"
	PluginStatusPanic   = "panic"
)

// PipelineMetrics captures plugin chain health signals.
type PipelineMetrics struct {
	pluginRuns     *prometheus.CounterVec
	pluginDuration *prometheus.HistogramVec
	chainRuns      *prometheus.CounterVec
	datesProcessed *prometheus.CounterVec
	costsSaved     *prometheus.CounterVec
}

var (
	pipelineMetricsOnce sync.Once
	pipelineMetrics     *PipelineMetrics
)

// Pipeline returns the singleton pipeline metrics registry.
func Pipeline() *PipelineMetrics {
	pipelineMetricsOnce.Do(func() {
		pipelineMetrics = newPipelineMetrics(prometheus.DefaultRegisterer)
	})
	return pipelineMetrics
}

// ResetPipelineMetricsForTest replaces the singleton with metrics bound to a
// fresh registry so repeated test setups never double-register collectors.
func ResetPipelineMetricsForTest() {
	pipelineMetricsOnce = sync.Once{}
	pipelineMetrics = newPipelineMetrics(prometheus.NewRegistry())
	pipelineMetricsOnce.Do(func() {})
}

func newPipelineMetrics(registerer prometheus.Registerer) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	pluginRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scrooge_plugin_runs_total",
		Help: "Plugin executions by chain, plugin and outcome.",
	}, []string{"chain", "plugin", "status"})
	pluginDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scrooge_plugin_duration_seconds",
		Help:    "Plugin execution latency.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"chain", "plugin"})
	chainRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scrooge_chain_runs_total",
		Help: "Chain driver invocations by chain.",
	}, []string{"chain"})
	datesProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scrooge_dates_processed_total",
		Help: "Calculated dates by outcome.",
	}, []string{"status"})
	costsSaved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scrooge_daily_costs_saved_total",
		Help: "Daily cost rows written per calculation run.",
	}, []string{"forecast"})

	registerer.MustRegister(
		pluginRuns,
		pluginDuration,
		chainRuns,
		datesProcessed,
		costsSaved,
	)

	return &PipelineMetrics{
		pluginRuns:     pluginRuns,
		pluginDuration: pluginDuration,
		chainRuns:      chainRuns,
		datesProcessed: datesProcessed,
		costsSaved:     costsSaved,
	}
}

// IncPluginRun increments the plugin run counter with its outcome.
func (m *PipelineMetrics) IncPluginRun(chain, plugin, status string) {
	if m == nil || m.pluginRuns == nil {
		return
	}
	m.pluginRuns.WithLabelValues(chain, plugin, status).Inc()
}

// ObservePluginDuration records plugin execution latency in seconds.
func (m *PipelineMetrics) ObservePluginDuration(chain, plugin string, duration time.Duration) {
	if m == nil || m.pluginDuration == nil {
		return
	}
	m.pluginDuration.WithLabelValues(chain, plugin).Observe(duration.Seconds())
}

// IncChainRun increments the chain driver counter.
func (m *PipelineMetrics) IncChainRun(chain string) {
	if m == nil || m.chainRuns == nil {
		return
	}
	m.chainRuns.WithLabelValues(chain).Inc()
}

// IncDateProcessed increments the processed-dates counter with its outcome.
func (m *PipelineMetrics) IncDateProcessed(status string) {
	if m == nil || m.datesProcessed == nil {
		return
	}
	m.datesProcessed.WithLabelValues(status).Inc()
}

// AddCostsSaved increments the saved daily cost rows counter.
func (m *PipelineMetrics) AddCostsSaved(forecast bool, count int) {
	if m == nil || m.costsSaved == nil || count <= 0 {
		return
	}
	label := "false"
	if forecast {
		label = "true"
	}
	m.costsSaved.WithLabelValues(label).Add(float64(count))
}
