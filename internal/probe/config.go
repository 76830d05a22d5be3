// Package probe drives a running wellcheck service with generated
// submissions and checks every answer against the decision rules.
package probe

import (
	"errors"
	"fmt"
	"time"
)

// Defaults for a probe run.
const (
	DefaultBaseURL      = "http://localhost:9080"
	DefaultCount        = 200
	DefaultTimeout      = 30 * time.Second
	DefaultCrisisRatio  = 0.1
	DefaultInvalidRatio = 0.1
)

// Sentinel kinds for a run that cannot start.
var (
	ErrInvalidConfig = errors.New("invalid probe configuration")
	// ErrAlertsLive means the target would page responders and the run did not opt in.
	ErrAlertsLive = errors.New("target service has alert delivery wired")
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Count        int           // Number of submissions to generate
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	CrisisRatio  float64       // Share of submissions carrying crisis language
	InvalidRatio float64       // Share of submissions that must be rejected
	Seed         uint64        // Generator seed; runs with the same seed post the same cases
	Output       string        // Optional JSON file for the generated cases
	Verbose      bool          // Log every violation as it is found
	AllowAlerts  bool          // Run even when escalations reach real responders
}

// Validate checks that the run can start.
func (c Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Count <= 0:
		return fmt.Errorf("%w: count must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	case c.CrisisRatio < 0 || c.InvalidRatio < 0 || c.CrisisRatio+c.InvalidRatio > 1:
		return fmt.Errorf("%w: ratios must be non-negative and sum to at most 1", ErrInvalidConfig)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Assessed   int
	Rejected   int
	Failed     int
	Escalated  int
	Alerted    int
	BySeverity map[string]int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
