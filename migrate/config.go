package migrate

import "time"

// Config holds shared configuration for migration runs.
type Config struct {
	// BatchSize is the number of points to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of points)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Workers is the embedding fan-out width within a batch
	Workers int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Workers:        4,
	}
}

func (c *Config) normalized() *Config {
	out := *c
	if out.BatchSize <= 0 {
		out.BatchSize = 100
	}
	if out.ReportInterval <= 0 {
		out.ReportInterval = 100
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = 3
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = time.Second
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	return &out
}
