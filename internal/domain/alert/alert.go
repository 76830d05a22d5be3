// Package alert defines the escalation notifier contract and the alert text
// shown to human responders.
package alert

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/internal/domain/model"
)

// DefaultTextLimit caps how much free text is copied into an alert.
const DefaultTextLimit = 300

const truncationMarker = "… [truncated]"

// Sentinel kinds for notification failures.
var (
	// ErrNotConfigured means the channel credentials are absent or unreadable.
	ErrNotConfigured = errors.New("alert channel not configured")
	// ErrDelivery means the message could not be delivered.
	ErrDelivery = errors.New("alert delivery failed")
)

// Notifier delivers an escalation. It reports false with a wrapped
// ErrNotConfigured or ErrDelivery instead of panicking or retrying.
type Notifier interface {
	Notify(ctx context.Context, v decision.Verdict, sub model.Submission) (bool, error)
}

type refKey struct{}

// WithRef attaches the submission reference to ctx.
func WithRef(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, refKey{}, ref)
}

// RefFrom returns the submission reference carried by ctx, if any.
func RefFrom(ctx context.Context) string {
	ref, _ := ctx.Value(refKey{}).(string)
	return ref
}

// Truncate keeps at most limit runes of s, appending a marker when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + truncationMarker
}

// FormatHTML renders the alert body for an HTML parse mode channel.
// Every user-supplied value is escaped.
func FormatHTML(ref string, v decision.Verdict, sub model.Submission, textLimit int) string {
	var b strings.Builder

	b.WriteString("🚨 <b>Wellbeing alert</b>\n")
	fmt.Fprintf(&b, "<b>Result:</b> %s\n", html.EscapeString(v.Severity.Label()))
	if v.KeywordOverride() {
		fmt.Fprintf(&b, "<b>Trigger:</b> crisis language (%q)\n", v.Keyword)
	} else {
		fmt.Fprintf(&b, "<b>Trigger:</b> model predicted class %d\n", v.Class)
	}
	if ref != "" {
		fmt.Fprintf(&b, "<b>Ref:</b> <code>%s</code>\n", html.EscapeString(ref))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "<b>Age:</b> %d\n", sub.Age)
	fmt.Fprintf(&b, "<b>Gender:</b> %s\n", sub.Gender)
	fmt.Fprintf(&b, "<b>University:</b> %s\n", sub.University)
	fmt.Fprintf(&b, "<b>Department:</b> %s\n", sub.Department)
	fmt.Fprintf(&b, "<b>Academic Year:</b> %s\n", sub.AcademicYear)
	fmt.Fprintf(&b, "<b>CGPA:</b> %.2f\n", sub.CGPA)
	fmt.Fprintf(&b, "<b>Anxiety:</b> %s\n", sub.AnxietyAnswer())
	fmt.Fprintf(&b, "<b>Stress:</b> %s\n", sub.StressAnswer())
	fmt.Fprintf(&b, "<b>Depression:</b> %s\n", sub.DepressionAnswer())

	b.WriteString("\n<b>Free text:</b>\n")
	text := strings.TrimSpace(sub.FreeText)
	if text == "" {
		b.WriteString("<i>(none)</i>")
	} else {
		fmt.Fprintf(&b, "<i>%s</i>", html.EscapeString(Truncate(text, textLimit)))
	}
	return b.String()
}
