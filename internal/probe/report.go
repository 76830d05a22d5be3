package probe

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/fatih/color"
)

const maxListedViolations = 20

// Print writes a human-readable summary of the run.
func (r Report) Print(w io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	_, _ = cyan.Fprintln(w, "🔍 Wellcheck probe")
	_, _ = fmt.Fprintf(w, "   Encoding: %s   Backend: %s   Alerts: %t\n",
		r.Service.Encoding, r.Service.ModelBackend, r.Service.AlertsEnabled)
	_, _ = fmt.Fprintf(w, "   Generated: %d   Submitted: %d   Failed: %d   Duration: %s\n",
		r.Stats.Generated, r.Stats.Submitted, r.Stats.Failed, r.Stats.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "   Assessed: %d   Rejected: %d   Escalated: %d   Alerts delivered: %d\n",
		r.Stats.Assessed, r.Stats.Rejected, r.Stats.Escalated, r.Stats.Alerted)

	if len(r.Stats.BySeverity) > 0 {
		_, _ = cyan.Fprintln(w, "📊 Verdicts")
		keys := make([]string, 0, len(r.Stats.BySeverity))
		for k := range r.Stats.BySeverity {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "   %-18s %d\n", k, r.Stats.BySeverity[k])
		}
	}

	for _, e := range r.Errors {
		_, _ = yellow.Fprintf(w, "   ⚠️  %s\n", e)
	}

	if r.Passed() {
		_, _ = green.Fprintln(w, "✅ Every reply is consistent")
		return
	}

	_, _ = red.Fprintf(w, "❌ %d inconsistent replies\n", len(r.Violations))
	for i, v := range r.Violations {
		if i == maxListedViolations {
			_, _ = fmt.Fprintf(w, "   ... %d more\n", len(r.Violations)-i)
			break
		}
		_, _ = fmt.Fprintf(w, "   case %d (%s) %s\n", v.CaseID, v.Kind, color.HiBlackString(v.Ref))
		for _, p := range v.Problems {
			_, _ = fmt.Fprintf(w, "      %s\n", color.YellowString(p))
		}
	}
}
