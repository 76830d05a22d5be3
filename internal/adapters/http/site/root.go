// Package site serves the single-page assessment form.
package site

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/wellcheck/internal/app"
	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/internal/domain/model"
	"github.com/okian/wellcheck/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("form render failed")
	ErrParse  = errors.New("form parse failed")
)

const maxFormBytes = 64 << 10

// Assessor runs one submission and reports the encoding it expects.
type Assessor interface {
	Assess(ctx context.Context, raw model.RawSubmission) service.Outcome
	Encoding() model.Encoding
}

// Register attaches the form and its assets to mux.
func Register(_ context.Context, mux *http.ServeMux, h *RootHandler) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
	mux.HandleFunc("/", h.HandleRoot)
}

// RootHandler renders the form and the assessment result.
type RootHandler struct {
	assessor Assessor
	tmpl     *template.Template
	logger   logger.Logger
}

// NewRootHandler creates a new root handler.
func NewRootHandler(assessor Assessor, log logger.Logger) *RootHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RootHandler{
		assessor: assessor,
		tmpl:     template.Must(template.ParseFS(staticFS, "static/index.html.tmpl")),
		logger:   log,
	}
}

// HandleRoot handles GET and POST on / and nothing else.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	enc := h.assessor.Encoding()
	switch r.Method {
	case http.MethodGet:
		h.render(w, r, newPage(enc, defaultRaw()), http.StatusOK)
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		raw, parseErrs := readForm(r)
		p := newPage(enc, raw)
		if len(parseErrs) > 0 {
			p.Result = &result{Banner: bannerError, Title: "Please check your answers", Errors: parseErrs}
			h.render(w, r, p, http.StatusUnprocessableEntity)
			return
		}
		out := h.assessor.Assess(r.Context(), raw)
		p.Result = toResult(out)
		h.render(w, r, p, http.StatusOK)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *RootHandler) render(w http.ResponseWriter, r *http.Request, p page, status int) {
	var buf strings.Builder
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html.tmpl", p); err != nil {
		h.logger.Error(r.Context(), "render form", logger.Error(fmt.Errorf("%w: %v", ErrRender, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func defaultRaw() model.RawSubmission {
	return model.RawSubmission{Age: model.DefaultAge, CGPA: model.DefaultCGPA}
}

// readForm converts posted values into a RawSubmission. Only numeric syntax
// is checked here; everything else is validated by the pipeline.
func readForm(r *http.Request) (model.RawSubmission, []string) {
	raw := defaultRaw()
	if err := r.ParseForm(); err != nil {
		return raw, []string{fmt.Errorf("%w: %v", ErrParse, err).Error()}
	}

	var errs []string
	if v := r.PostFormValue(model.FieldAge); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, (&model.FieldError{Field: model.FieldAge, Value: v, Reason: "not a whole number"}).Error())
		}
		raw.Age = n
	}
	if v := r.PostFormValue(model.FieldCGPA); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, (&model.FieldError{Field: model.FieldCGPA, Value: v, Reason: "not a number"}).Error())
		}
		raw.CGPA = f
	}

	raw.Gender = r.PostFormValue(model.FieldGender)
	raw.University = r.PostFormValue(model.FieldUniversity)
	raw.Department = r.PostFormValue(model.FieldDepartment)
	raw.AcademicYear = r.PostFormValue(model.FieldAcademicYear)
	raw.Anxiety = r.PostFormValue(model.FieldAnxiety)
	raw.Stress = r.PostFormValue(model.FieldStress)
	raw.Depression = r.PostFormValue(model.FieldDepression)
	raw.FreeText = r.PostFormValue(model.FieldFreeText)

	for _, s := range []struct {
		field string
		dst   **int
	}{
		{model.FieldAnxietyScore, &raw.AnxietyScore},
		{model.FieldStressScore, &raw.StressScore},
		{model.FieldDepressionScore, &raw.DepressionScore},
	} {
		v := strings.TrimSpace(r.PostFormValue(s.field))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, (&model.FieldError{Field: s.field, Value: v, Reason: "not a whole number"}).Error())
			continue
		}
		*s.dst = &n
	}
	return raw, errs
}

func toResult(out service.Outcome) *result {
	res := &result{Ref: out.Ref}

	switch {
	case out.Rejected != nil:
		res.Banner = bannerError
		res.Title = "Please check your answers"
		for _, fe := range model.FieldErrors(out.Rejected) {
			res.Errors = append(res.Errors, fe.Error())
		}
		return res
	case out.Fault != nil:
		res.Banner = bannerError
		res.Title = "Prediction failed"
		res.Message = out.Fault.Kind.Describe()
		return res
	}

	res.Preview = previewOf(out.Row)
	v := out.Verdict
	res.Title = v.Severity.Label()
	switch v.Severity {
	case decision.SeverityLow:
		res.Banner = bannerSuccess
		res.Message = "Your answers suggest a manageable stress level. Keep looking after yourself."
	case decision.SeverityMedium:
		res.Banner = bannerWarning
		res.Message = "Your answers suggest elevated stress. Consider talking to someone you trust or to student support."
	default:
		res.Banner = bannerAlarm
		res.Alarm = true
		res.Message = "Your answers suggest you may need support right now. You are not alone."
		res.Notice = out.Notification.Message
		res.NoticeOK = out.Notification.Delivered
	}
	return res
}

func previewOf(row model.FeatureRow) []previewCell {
	names := row.Names()
	cells := make([]previewCell, len(names))
	for i, name := range names {
		cells[i] = previewCell{Name: name, Value: strconv.FormatFloat(row.Values[i], 'f', -1, 64)}
	}
	return cells
}
