package config

import "time"

type ExtractorConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	QueueSize       int // Maximum number of heights in the queue
	IncludeReverted bool
}

func (c ExtractorConfig) GetPollInterval() time.Duration {
	return c.PollInterval
}

func (c ExtractorConfig) GetBatchSize() int {
	return c.BatchSize
}

func (c ExtractorConfig) GetQueueSize() int {
	return c.QueueSize
}

func (c ExtractorConfig) GetIncludeReverted() bool {
	return c.IncludeReverted
}
