package api

import (
	"encoding/json"
	"net/http"

	service "github.com/okian/wellcheck/internal/app"
	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/internal/domain/model"
)

const maxBodyBytes = 64 << 10

// AssessmentHandler serves POST /api/v1/assessments.
type AssessmentHandler struct {
	assessor Assessor
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(assessor Assessor) *AssessmentHandler {
	return &AssessmentHandler{assessor: assessor}
}

type featureValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type notificationResponse struct {
	Attempted bool   `json:"attempted"`
	Delivered bool   `json:"delivered"`
	Message   string `json:"message"`
}

type assessmentResponse struct {
	Ref          string                `json:"ref"`
	Severity     string                `json:"severity"`
	Label        string                `json:"label"`
	Escalated    bool                  `json:"escalated"`
	Class        *int                  `json:"class,omitempty"`
	Keyword      string                `json:"keyword,omitempty"`
	Features     []featureValue        `json:"features"`
	Notification *notificationResponse `json:"notification,omitempty"`
	DurationMS   float64               `json:"duration_ms"`
}

// HandlePostAssessment handles POST /api/v1/assessments requests.
func (h *AssessmentHandler) HandlePostAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assessment"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var raw model.RawSubmission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	out := h.assessor.Assess(r.Context(), raw)

	switch {
	case out.Rejected != nil:
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "invalid_submission",
			Message: WrapKind(op, ErrInvalidSubmission, out.Rejected).Error(),
			Ref:     out.Ref,
			Fields:  toFieldErrors(out.Rejected),
		})
	case out.Fault != nil:
		writeJSON(w, faultStatus(out.Fault), errorResponse{
			Code:    out.Fault.Kind.String(),
			Message: out.Fault.Kind.Describe(),
			Ref:     out.Ref,
		})
	default:
		writeJSON(w, http.StatusOK, toResponse(out))
	}
}

func faultStatus(f *decision.Fault) int {
	if f.Kind == decision.FaultArtifactUnavailable {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func toFieldErrors(err error) []fieldError {
	fes := model.FieldErrors(err)
	out := make([]fieldError, 0, len(fes))
	for _, fe := range fes {
		out = append(out, fieldError{Field: fe.Field, Value: fe.Value, Reason: fe.Reason})
	}
	return out
}

func toResponse(out service.Outcome) assessmentResponse {
	v := out.Verdict
	resp := assessmentResponse{
		Ref:        out.Ref,
		Severity:   v.Severity.Slug(),
		Label:      v.Severity.Label(),
		Escalated:  v.Escalated,
		Keyword:    v.Keyword,
		DurationMS: float64(out.Duration.Microseconds()) / 1000,
	}
	if !v.KeywordOverride() {
		class := v.Class
		resp.Class = &class
	}

	names := out.Row.Names()
	resp.Features = make([]featureValue, len(names))
	for i, name := range names {
		resp.Features[i] = featureValue{Name: name, Value: out.Row.Values[i]}
	}

	if v.Escalated {
		resp.Notification = &notificationResponse{
			Attempted: out.Notification.Attempted,
			Delivered: out.Notification.Delivered,
			Message:   out.Notification.Message,
		}
	}
	return resp
}
