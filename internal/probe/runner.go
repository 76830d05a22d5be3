package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/wellcheck/internal/domain/model"
	"github.com/okian/wellcheck/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o640
	jobChannelFactor    = 2
)

// Violation is a reply that broke at least one rule.
type Violation struct {
	CaseID   int
	Kind     Kind
	Ref      string
	Problems []string
}

// Report is the outcome of a run.
type Report struct {
	Service    ServiceInfo
	Stats      Stats
	Violations []Violation
	Errors     []string
}

// Passed reports whether every case was answered and every answer was consistent.
func (r Report) Passed() bool {
	return len(r.Violations) == 0 && r.Stats.Failed == 0
}

type result struct {
	reply Reply
	err   error
}

// Run executes a complete probe against cfg.BaseURL.
func Run(ctx context.Context, cfg Config, log logger.Logger) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	report := Report{Stats: Stats{StartTime: time.Now(), BySeverity: map[string]int{}}}

	log.Info(ctx, "starting wellcheck probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("count", cfg.Count),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Any("seed", cfg.Seed))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return report, fmt.Errorf("service health check failed: %w", err)
	}
	info, err := client.Info(ctx)
	if err != nil {
		return report, err
	}
	report.Service = info
	if info.AlertsEnabled && !cfg.AllowAlerts {
		return report, fmt.Errorf("%w: every escalated case would notify responders; rerun with alerts allowed or target a service without alert credentials", ErrAlertsLive)
	}
	enc, err := model.ParseEncoding(info.Encoding)
	if err != nil {
		return report, fmt.Errorf("service reports an unusable encoding: %w", err)
	}

	cases := NewGenerator(cfg.Seed, enc).Generate(cfg.Count, cfg.CrisisRatio, cfg.InvalidRatio)
	report.Stats.Generated = len(cases)
	if cfg.Output != "" {
		if err := SaveCases(cfg.Output, cases); err != nil {
			log.Warn(ctx, "failed to save cases", logger.Error(err))
		}
	}

	results := submit(ctx, client, cases, cfg.Workers)

	verifier := NewVerifier(enc)
	for i, c := range cases {
		res := results[i]
		if res.err != nil {
			report.Stats.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("case %d: %v", c.ID, res.err))
			continue
		}
		report.Stats.Submitted++
		tally(&report.Stats, res.reply)

		if problems := verifier.Check(c, res.reply); len(problems) > 0 {
			v := Violation{CaseID: c.ID, Kind: c.Kind, Problems: problems}
			switch {
			case res.reply.Assessment != nil:
				v.Ref = res.reply.Assessment.Ref
			case res.reply.Problem != nil:
				v.Ref = res.reply.Problem.Ref
			}
			report.Violations = append(report.Violations, v)
			if cfg.Verbose {
				log.Warn(ctx, "inconsistent reply",
					logger.Int("case", c.ID),
					logger.String("kind", string(c.Kind)),
					logger.Any("problems", problems))
			}
		}
	}

	report.Stats.EndTime = time.Now()
	report.Stats.Duration = report.Stats.EndTime.Sub(report.Stats.StartTime)
	log.Info(ctx, "probe completed",
		logger.Int("submitted", report.Stats.Submitted),
		logger.Int("violations", len(report.Violations)),
		logger.Int("failed", report.Stats.Failed),
		logger.Duration("duration", report.Stats.Duration))
	return report, nil
}

// submit posts every case through a fixed worker pool. results[i] belongs to cases[i].
func submit(ctx context.Context, client *Client, cases []Case, workers int) []result {
	results := make([]result, len(cases))
	jobs := make(chan int, workers*jobChannelFactor)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results[i] = result{err: err}
					continue
				}
				reply, err := client.Submit(ctx, cases[i].Submission)
				results[i] = result{reply: reply, err: err}
			}
		}()
	}

	for i := range cases {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func tally(s *Stats, r Reply) {
	if r.Assessment == nil {
		if r.Problem != nil && r.Problem.Code == "invalid_submission" {
			s.Rejected++
		}
		return
	}
	s.Assessed++
	s.BySeverity[r.Assessment.Severity]++
	if r.Assessment.Escalated {
		s.Escalated++
	}
	if n := r.Assessment.Notification; n != nil && n.Delivered {
		s.Alerted++
	}
}

// SaveCases writes the generated cases as indented JSON.
func SaveCases(filename string, cases []Case) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cases: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write cases: %w", err)
	}
	return nil
}
