package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/resources"
)

// WriteSummary prints the console report: totals, utilization, cost
// analysis and the per-severity breakdown.
func WriteSummary(w io.Writer, r Report) error {
	var b strings.Builder
	b.WriteString("Wildfire Response System Summary Report\n")
	b.WriteString("=======================================\n")
	fmt.Fprintf(&b, "Total Events Processed: %d\n", r.TotalEvents)
	fmt.Fprintf(&b, "Fires Addressed: %d\n", r.FiresAddressed)
	fmt.Fprintf(&b, "Fires Missed: %d\n", r.FiresMissed)

	b.WriteString("\nResource Utilization:\n")
	util := r.Utilization()
	for _, name := range r.ResourceNames() {
		st := r.ResourceUtilization[name]
		fmt.Fprintf(&b, "  %s:\n", displayName(name))
		fmt.Fprintf(&b, "    Used: %d/%d (%.1f%%)\n", st.Used, st.Total, util[name])
	}

	b.WriteString("\nCost Analysis:\n")
	fmt.Fprintf(&b, "Operational Costs: $%s\n", money(r.OperationalCosts))
	fmt.Fprintf(&b, "Damage Costs from Missed Responses: $%s\n", money(r.DamageCosts))
	fmt.Fprintf(&b, "Total Combined Costs: $%s\n", money(r.TotalCost()))

	b.WriteString("\nResponse Breakdown by Severity:\n")
	b.WriteString("-------------------------------\n")
	rates := r.SuccessRates()
	for _, s := range model.Severities {
		rate, ok := rates[s]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n%s Severity Fires:\n", strings.ToUpper(s.String()))
		fmt.Fprintf(&b, "  Addressed: %d\n", r.SeverityReport.Addressed[s])
		fmt.Fprintf(&b, "  Missed: %d\n", r.SeverityReport.Missed[s])
		fmt.Fprintf(&b, "  Success Rate: %.1f%%\n", rate*100)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func money(v float64) string { return humanize.CommafWithDigits(v, 2) }

// displayName turns "fire_engines" into "Fire Engines".
func displayName(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]resources.Status) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
