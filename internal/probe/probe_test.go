package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/okian/wellcheck/internal/adapters/classifier/tree"
	"github.com/okian/wellcheck/internal/adapters/http/api"
	"github.com/okian/wellcheck/internal/adapters/notify/telegram"
	"github.com/okian/wellcheck/internal/adapters/secrets"
	service "github.com/okian/wellcheck/internal/app"
	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/internal/domain/model"
	"github.com/okian/wellcheck/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const fixturePath = "../adapters/classifier/tree/testdata/stress_tree.yaml"

func newService(t *testing.T) *service.Service {
	t.Helper()
	clf, err := tree.Load(fixturePath)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	engine, err := decision.New(decision.WithClassifier(clf), decision.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	svc, err := service.New(
		service.WithEngine(engine),
		service.WithNotifier(telegram.New(telegram.WithSecrets(secrets.Static{}), telegram.WithLogger(logger.Nop()))),
		service.WithModelInfo(clf.Describe()),
		service.WithLogger(logger.Nop()),
	)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	svc := newService(t)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func testConfig(url string) Config {
	return Config{
		BaseURL:      url,
		Count:        60,
		Workers:      4,
		Timeout:      DefaultTimeout,
		CrisisRatio:  0.2,
		InvalidRatio: 0.2,
		Seed:         7,
		AllowAlerts:  true,
	}
}

func TestConfigValidate(t *testing.T) {
	Convey("Given probe configurations", t, func() {
		So(testConfig("http://x").Validate(), ShouldBeNil)

		bad := []func(*Config){
			func(c *Config) { c.BaseURL = "" },
			func(c *Config) { c.Count = 0 },
			func(c *Config) { c.Workers = 0 },
			func(c *Config) { c.Timeout = 0 },
			func(c *Config) { c.CrisisRatio = -0.1 },
			func(c *Config) { c.CrisisRatio, c.InvalidRatio = 0.7, 0.7 },
		}
		for _, mutate := range bad {
			cfg := testConfig("http://x")
			mutate(&cfg)
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		}
	})
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded ordinal generator", t, func() {
		cases := NewGenerator(42, model.EncodingOrdinal).Generate(300, 0.2, 0.2)

		Convey("Then the same seed yields the same cases", func() {
			again := NewGenerator(42, model.EncodingOrdinal).Generate(300, 0.2, 0.2)
			So(again, ShouldResemble, cases)
		})

		Convey("Then every kind appears", func() {
			kinds := map[Kind]int{}
			for _, c := range cases {
				kinds[c.Kind]++
			}
			So(kinds[KindOrdinary], ShouldBeGreaterThan, 0)
			So(kinds[KindCrisis], ShouldBeGreaterThan, 0)
			So(kinds[KindInvalid], ShouldBeGreaterThan, 0)
		})

		Convey("Then each case parses or fails the way its kind says", func() {
			for _, c := range cases {
				_, err := model.ParseSubmission(c.Submission, model.EncodingOrdinal)
				_, crisis := decision.MatchCrisis(c.Submission.FreeText)
				switch c.Kind {
				case KindOrdinary:
					So(err, ShouldBeNil)
					So(crisis, ShouldBeFalse)
				case KindCrisis:
					So(err, ShouldBeNil)
					So(crisis, ShouldBeTrue)
				case KindInvalid:
					fields := model.FieldErrors(err)
					So(len(fields), ShouldEqual, 1)
					So(fields[0].Field, ShouldEqual, c.BadField)
				}
			}
		})
	})

	Convey("Given a raw slider generator", t, func() {
		cases := NewGenerator(1, model.EncodingRaw).Generate(50, 0, 0)

		Convey("Then submissions carry in-range scores", func() {
			for _, c := range cases {
				_, err := model.ParseSubmission(c.Submission, model.EncodingRaw)
				So(err, ShouldBeNil)
				So(c.Submission.Stress, ShouldBeEmpty)
			}
		})
	})
}

func TestVerifier(t *testing.T) {
	Convey("Given a verifier and an ordinary case", t, func() {
		v := NewVerifier(model.EncodingOrdinal)
		c := NewGenerator(3, model.EncodingOrdinal).Generate(1, 0, 0)[0]
		c.Submission.FreeText = "fine"
		sub, err := model.ParseSubmission(c.Submission, model.EncodingOrdinal)
		So(err, ShouldBeNil)

		features := make([]Feature, 0, model.FeatureCount)
		for i, name := range model.FeatureNames() {
			features = append(features, Feature{Name: name, Value: sub.FeatureRow().Values[i]})
		}
		class := 2
		good := &Assessment{
			Ref:          "0b8f7c52-3c4e-4f77-9d1e-2f4b5f0b6a11",
			Severity:     "high",
			Escalated:    true,
			Class:        &class,
			Features:     features,
			Notification: &Notification{Attempted: true},
		}

		Convey("When the reply is consistent", func() {
			So(v.Check(c, Reply{Status: http.StatusOK, Assessment: good}), ShouldBeEmpty)
		})

		Convey("When high is not escalated", func() {
			bad := *good
			bad.Escalated = false
			bad.Notification = nil
			So(v.Check(c, Reply{Status: http.StatusOK, Assessment: &bad}), ShouldNotBeEmpty)
		})

		Convey("When the class disagrees with the severity", func() {
			bad := *good
			low := 0
			bad.Class = &low
			problems := v.Check(c, Reply{Status: http.StatusOK, Assessment: &bad})
			So(strings.Join(problems, ";"), ShouldContainSubstring, "class 0 labeled high")
		})

		Convey("When a feature value drifts", func() {
			bad := *good
			bad.Features = append([]Feature(nil), features...)
			bad.Features[5].Value += 1
			problems := v.Check(c, Reply{Status: http.StatusOK, Assessment: &bad})
			So(strings.Join(problems, ";"), ShouldContainSubstring, "Current CGPA")
		})

		Convey("When crisis text is answered by the classifier", func() {
			c.Submission.FreeText = "I want to end it all"
			problems := v.Check(c, Reply{Status: http.StatusOK, Assessment: good})
			So(strings.Join(problems, ";"), ShouldContainSubstring, "classifier consulted")
		})

		Convey("When the service faults", func() {
			problems := v.Check(c, Reply{Status: http.StatusServiceUnavailable, Problem: &Problem{Code: "artifact_unavailable"}})
			So(problems, ShouldResemble, []string{"unexpected status 503 (artifact_unavailable)"})
		})

		Convey("When an invalid case is accepted", func() {
			c.Kind, c.BadField = KindInvalid, model.FieldAge
			problems := v.Check(c, Reply{Status: http.StatusOK, Assessment: good})
			So(problems, ShouldResemble, []string{"invalid age accepted with status 200"})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given the real assessment API", t, func() {
		srv := newAPI(t)
		defer srv.Close()

		Convey("When a probe runs against it", func() {
			dir := t.TempDir()
			cfg := testConfig(srv.URL)
			cfg.Output = filepath.Join(dir, "cases", "run.json")

			report, err := Run(context.Background(), cfg, logger.Nop())

			Convey("Then every reply is consistent", func() {
				So(err, ShouldBeNil)
				So(report.Errors, ShouldBeEmpty)
				So(report.Violations, ShouldBeEmpty)
				So(report.Passed(), ShouldBeTrue)
				So(report.Stats.Submitted, ShouldEqual, cfg.Count)
				So(report.Stats.Assessed+report.Stats.Rejected, ShouldEqual, cfg.Count)
				So(report.Stats.BySeverity["critical_override"], ShouldBeGreaterThan, 0)
				So(report.Service.Encoding, ShouldEqual, "ordinal")
			})

			Convey("Then the generated cases are saved", func() {
				data, err := os.ReadFile(cfg.Output)
				So(err, ShouldBeNil)
				var saved []Case
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(len(saved), ShouldEqual, cfg.Count)
			})

			Convey("Then the report prints a pass line", func() {
				var buf bytes.Buffer
				report.Print(&buf)
				So(buf.String(), ShouldContainSubstring, "Every reply is consistent")
			})
		})
	})

	Convey("Given a service that never escalates", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"encoding":"ordinal","modelBackend":"tree"}`))
		})
		mux.HandleFunc("/api/v1/assessments", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ref":"not-a-uuid","severity":"low","class":0,"escalated":false,"features":[]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		report, err := Run(context.Background(), testConfig(srv.URL), logger.Nop())

		Convey("Then the run completes with violations", func() {
			So(err, ShouldBeNil)
			So(report.Passed(), ShouldBeFalse)
			So(len(report.Violations), ShouldEqual, report.Stats.Submitted)

			var buf bytes.Buffer
			report.Print(&buf)
			So(buf.String(), ShouldContainSubstring, "inconsistent replies")
		})
	})

	Convey("Given a service with alert delivery wired", t, func() {
		var posts atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"encoding":"ordinal","modelBackend":"tree","alertsEnabled":true}`))
		})
		mux.HandleFunc("/api/v1/assessments", func(w http.ResponseWriter, _ *http.Request) {
			posts.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := testConfig(srv.URL)
		cfg.AllowAlerts = false
		_, err := Run(context.Background(), cfg, logger.Nop())

		Convey("Then the run refuses before submitting anything", func() {
			So(errors.Is(err, ErrAlertsLive), ShouldBeTrue)
			So(posts.Load(), ShouldEqual, 0)
		})
	})

	Convey("Given nothing listening", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := Run(context.Background(), testConfig(url), logger.Nop())

		Convey("Then the health check fails", func() {
			So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
		})
	})
}

func TestReadSubmission(t *testing.T) {
	Convey("Given submission files", t, func() {
		dir := t.TempDir()

		Convey("When the file is YAML", func() {
			path := filepath.Join(dir, "sub.yaml")
			content := "age: 22\ngender: Female\nacademic_year: Third Year or Equivalent\ncgpa: 8.1\nfree_text: fine\n"
			So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)

			raw, err := ReadSubmission(path, nil)
			So(err, ShouldBeNil)
			So(raw.Age, ShouldEqual, 22)
			So(raw.AcademicYear, ShouldEqual, "Third Year or Equivalent")
			So(raw.FreeText, ShouldEqual, "fine")
		})

		Convey("When JSON arrives on stdin", func() {
			raw, err := ReadSubmission("-", strings.NewReader(`{"age": 30, "stress_score": 12}`))
			So(err, ShouldBeNil)
			So(raw.Age, ShouldEqual, 30)
			So(*raw.StressScore, ShouldEqual, 12)
		})

		Convey("When the file is missing", func() {
			_, err := ReadSubmission(filepath.Join(dir, "none.yaml"), nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPrintOutcome(t *testing.T) {
	Convey("Given a locally assessed submission", t, func() {
		svc := newService(t)
		raw := NewGenerator(9, model.EncodingOrdinal).Generate(1, 0, 0)[0].Submission

		Convey("When it carries crisis text", func() {
			raw.FreeText = "better off dead"
			var buf bytes.Buffer
			PrintOutcome(&buf, svc.Assess(context.Background(), raw))

			So(buf.String(), ShouldContainSubstring, `Crisis language: "better off dead"`)
			So(buf.String(), ShouldContainSubstring, "Input Preview")
			So(buf.String(), ShouldContainSubstring, service.MsgAlertNotConfigured)
		})

		Convey("When it is invalid", func() {
			raw.Age = 3
			var buf bytes.Buffer
			PrintOutcome(&buf, svc.Assess(context.Background(), raw))

			So(buf.String(), ShouldContainSubstring, "Submission rejected")
			So(buf.String(), ShouldContainSubstring, "age: must be between 15 and 60")
		})
	})
}
