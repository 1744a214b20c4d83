package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/report"
)

// RenderChart writes an HTML page with resource utilization, per-severity
// outcomes and the cumulative cost curve of the run.
func RenderChart(w io.Writer, rep report.Report, records []model.DispatchRecord) error {
	page := components.NewPage()
	page.PageTitle = "Wildfire dispatch run"
	page.AddCharts(utilizationChart(rep), severityChart(rep), costChart(records))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("export: render chart: %w", err)
	}
	return nil
}

func utilizationChart(rep report.Report) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Resource utilization"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Resource"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Units"}),
	)
	names := rep.ResourceNames()
	used := make([]opts.BarData, 0, len(names))
	avail := make([]opts.BarData, 0, len(names))
	for _, n := range names {
		st := rep.ResourceUtilization[n]
		used = append(used, opts.BarData{Value: st.Used})
		avail = append(avail, opts.BarData{Value: st.Available})
	}
	bar.SetXAxis(names).
		AddSeries("Used", used).
		AddSeries("Available", avail)
	return bar
}

func severityChart(rep report.Report) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Outcomes by severity"}))
	labels := make([]string, 0, len(model.Severities))
	addressed := make([]opts.BarData, 0, len(model.Severities))
	missed := make([]opts.BarData, 0, len(model.Severities))
	for _, s := range model.Severities {
		labels = append(labels, s.String())
		addressed = append(addressed, opts.BarData{Value: rep.SeverityReport.Addressed[s]})
		missed = append(missed, opts.BarData{Value: rep.SeverityReport.Missed[s]})
	}
	bar.SetXAxis(labels).
		AddSeries("Addressed", addressed).
		AddSeries("Missed", missed)
	return bar
}

func costChart(records []model.DispatchRecord) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Cumulative cost"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Incident"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Cost"}),
	)
	x := make([]string, 0, len(records))
	ops := make([]opts.LineData, 0, len(records))
	dmg := make([]opts.LineData, 0, len(records))
	var opSum, dmgSum float64
	for i, r := range records {
		if r.Succeeded() {
			opSum += r.Cost
		} else {
			dmgSum += r.DamageCost
		}
		x = append(x, fmt.Sprintf("%d", i+1))
		ops = append(ops, opts.LineData{Value: opSum})
		dmg = append(dmg, opts.LineData{Value: dmgSum})
	}
	line.SetXAxis(x).
		AddSeries("Operational", ops).
		AddSeries("Damage", dmg)
	return line
}
