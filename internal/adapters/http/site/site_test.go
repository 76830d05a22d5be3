package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	service "github.com/okian/wellcheck/internal/app"
	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type stubAssessor struct {
	enc          model.Encoding
	verdict      decision.Verdict
	fault        *decision.Fault
	notification service.Notification
	last         model.RawSubmission
	calls        int
}

func (s *stubAssessor) Encoding() model.Encoding { return s.enc }

func (s *stubAssessor) Assess(_ context.Context, raw model.RawSubmission) service.Outcome {
	s.calls++
	s.last = raw
	out := service.Outcome{Ref: "ref-site"}
	sub, err := model.ParseSubmission(raw, s.enc)
	if err != nil {
		out.Rejected = err
		return out
	}
	out.Row = sub.FeatureRow()
	if s.fault != nil {
		out.Fault = s.fault
		return out
	}
	out.Verdict = s.verdict
	out.Notification = s.notification
	return out
}

func referenceForm() url.Values {
	return url.Values{
		"age":           {"20"},
		"gender":        {"Male"},
		"university":    {"University A"},
		"department":    {"Computer Science"},
		"academic_year": {"Second Year or Equivalent"},
		"cgpa":          {"7.5"},
		"anxiety":       {"Sometimes"},
		"stress":        {"Sometimes"},
		"depression":    {"Sometimes"},
		"free_text":     {""},
	}
}

func submit(mux *http.ServeMux, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestSiteHandler(t *testing.T) {
	Convey("Given the form registered on a mux", t, func() {
		stub := &stubAssessor{enc: model.EncodingOrdinal, verdict: decision.Verdict{Severity: decision.SeverityLow}}
		mux := http.NewServeMux()
		Register(context.Background(), mux, NewRootHandler(stub, nil))

		Convey("When the form is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then every option set is rendered with widget defaults", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				body := w.Body.String()
				So(body, ShouldContainSubstring, `name="age" min="15" max="60" step="1" value="20"`)
				So(body, ShouldContainSubstring, `value="7.5"`)
				So(body, ShouldContainSubstring, "<option>Civil</option>")
				So(body, ShouldContainSubstring, "<option>Almost every day</option>")
				So(body, ShouldContainSubstring, "<option>Frequently</option>")
				So(body, ShouldNotContainSubstring, `id="result"`)
				So(stub.calls, ShouldEqual, 0)
			})
		})

		Convey("When a low submission is posted", func() {
			w := submit(mux, referenceForm())

			Convey("Then a success banner and the input preview are shown", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := w.Body.String()
				So(body, ShouldContainSubstring, `class="banner success"`)
				So(body, ShouldContainSubstring, "Low Stress (Level 1)")
				So(body, ShouldContainSubstring, "Input Preview")
				So(body, ShouldContainSubstring, "<th>Current CGPA</th>")
				So(body, ShouldContainSubstring, "<td>7.5</td>")
				So(body, ShouldNotContainSubstring, "data-alarm")
				So(stub.last.Gender, ShouldEqual, "Male")
				So(stub.last.Age, ShouldEqual, 20)
			})

			Convey("Then the answers stay selected", func() {
				So(w.Body.String(), ShouldContainSubstring, "<option selected>Second Year or Equivalent</option>")
			})
		})

		Convey("When a medium verdict comes back", func() {
			stub.verdict = decision.Verdict{Severity: decision.SeverityMedium, Class: 1}
			w := submit(mux, referenceForm())
			So(w.Body.String(), ShouldContainSubstring, `class="banner warning"`)
		})

		Convey("When an escalating verdict comes back", func() {
			stub.verdict = decision.Verdict{Severity: decision.SeverityHigh, Escalated: true, Class: 2}
			stub.notification = service.Notification{Attempted: true, Message: service.MsgAlertNotConfigured}
			w := submit(mux, referenceForm())

			Convey("Then the alarm banner carries the audio cue and the alert outcome", func() {
				body := w.Body.String()
				So(body, ShouldContainSubstring, `class="banner alarm"`)
				So(body, ShouldContainSubstring, `data-alarm="1"`)
				So(body, ShouldContainSubstring, "High Stress (Level 3)")
				So(body, ShouldContainSubstring, `class="notice failed"`)
				So(body, ShouldContainSubstring, "ref-site")
			})
		})

		Convey("When prediction fails", func() {
			stub.fault = &decision.Fault{Kind: decision.FaultShapeMismatch}
			w := submit(mux, referenceForm())

			Convey("Then a kind-specific error is shown", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := w.Body.String()
				So(body, ShouldContainSubstring, `class="banner error"`)
				So(body, ShouldContainSubstring, "Prediction failed")
				So(body, ShouldContainSubstring, "input layout")
			})
		})

		Convey("When a hand-crafted post carries an unknown option", func() {
			form := referenceForm()
			form.Set("department", "Alchemy")
			w := submit(mux, form)

			Convey("Then the labeled error is shown", func() {
				body := w.Body.String()
				So(body, ShouldContainSubstring, `class="banner error"`)
				So(body, ShouldContainSubstring, "department: unknown option")
			})
		})

		Convey("When age is not a number", func() {
			form := referenceForm()
			form.Set("age", "twenty")
			w := submit(mux, form)

			Convey("Then the form is re-rendered without assessing", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(w.Body.String(), ShouldContainSubstring, "age: not a whole number")
				So(stub.calls, ShouldEqual, 0)
			})
		})

		Convey("When free text contains markup", func() {
			form := referenceForm()
			form.Set("free_text", "<script>alert(1)</script>")
			w := submit(mux, form)

			Convey("Then it is escaped on re-render", func() {
				So(w.Body.String(), ShouldNotContainSubstring, "<script>alert(1)</script>")
				So(w.Body.String(), ShouldContainSubstring, "&lt;script&gt;")
			})
		})

		Convey("When the stylesheet is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/static/style.css", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, ".banner.alarm")
		})

		Convey("When an unknown path is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/some-asset", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When an unsupported method is used", func() {
			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given the raw slider encoding", t, func() {
		stub := &stubAssessor{enc: model.EncodingRaw, verdict: decision.Verdict{Severity: decision.SeverityLow}}
		mux := http.NewServeMux()
		Register(context.Background(), mux, NewRootHandler(stub, nil))

		Convey("When the form is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then sliders replace the ordinal questions", func() {
				body := w.Body.String()
				So(body, ShouldContainSubstring, `name="stress_score" min="0" max="40"`)
				So(body, ShouldNotContainSubstring, `name="anxiety"`)
			})
		})

		Convey("When scores are posted", func() {
			form := referenceForm()
			form.Del("anxiety")
			form.Del("stress")
			form.Del("depression")
			form.Set("anxiety_score", "12")
			form.Set("stress_score", "30")
			form.Set("depression_score", "5")
			w := submit(mux, form)

			Convey("Then they reach the pipeline", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(*stub.last.StressScore, ShouldEqual, 30)
				So(w.Body.String(), ShouldContainSubstring, "<td>30</td>")
			})
		})
	})
}
