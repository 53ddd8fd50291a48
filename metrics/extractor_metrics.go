package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ExtractorLatencyBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}
)

// ExtractorMetrics groups extraction worker metrics
type ExtractorMetrics struct {
	// Core processing metrics
	BlocksProcessedTotal prometheus.Counter
	CurrentBlockHeight   prometheus.Gauge
	BlockProcessingTime  *prometheus.HistogramVec

	// Extraction outcomes
	LogsExtractedTotal      prometheus.Counter
	ExtractionWarningsTotal *prometheus.CounterVec
	ConsoleCallsPerBlock    prometheus.Histogram

	// Queue and throughput metrics
	InflightBlocksCount prometheus.Gauge
	ProcessingSpeed     prometheus.Gauge

	// Error tracking
	ProcessingErrors *prometheus.CounterVec
}

// NewExtractorMetrics creates and returns extractor metrics
func NewExtractorMetrics() *ExtractorMetrics {
	return &ExtractorMetrics{
		BlocksProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "declog_blocks_processed_total",
				Help: "Total number of blocks processed",
			},
		),
		CurrentBlockHeight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "declog_current_block_height",
				Help: "Current block height being processed",
			},
		),
		BlockProcessingTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "declog_block_processing_duration_seconds",
				Help:    "Time spent processing blocks",
				Buckets: ExtractorLatencyBuckets,
			},
			[]string{"stage"}, // "scrape", "extract", "collect"
		),
		LogsExtractedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "declog_console_logs_extracted_total",
				Help: "Total number of console log entries extracted",
			},
		),
		ExtractionWarningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "declog_extraction_warnings_total",
				Help: "Total number of per-call extraction warnings",
			},
			[]string{"reason"}, // "unknown_selector", "truncated", "bad_offset"
		),
		ConsoleCallsPerBlock: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "declog_console_calls_per_block",
				Help:    "Number of console calls found per block",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 500},
			},
		),
		InflightBlocksCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "declog_inflight_blocks_count",
				Help: "Number of blocks currently being processed",
			},
		),
		ProcessingSpeed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "declog_processing_speed_blocks_per_second",
				Help: "Current processing speed in blocks per second",
			},
		),
		ProcessingErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "declog_processing_errors_total",
				Help: "Total number of processing errors",
			},
			[]string{"stage", "error_type"}, // stage: scrape, extract, collect
		),
	}
}

// Register registers all extractor metrics with the given registry
func (e *ExtractorMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		e.BlocksProcessedTotal,
		e.CurrentBlockHeight,
		e.BlockProcessingTime,
		e.LogsExtractedTotal,
		e.ExtractionWarningsTotal,
		e.ConsoleCallsPerBlock,
		e.InflightBlocksCount,
		e.ProcessingSpeed,
		e.ProcessingErrors,
	)
}
