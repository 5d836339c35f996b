/*
	Photostat
	Copyright (c) 2025 Photostat Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package observatory

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/report.html
var reportTemplate string

// ReportMode says which entry point produced a report.
type ReportMode string

// Report modes.
const (
	ModeScan ReportMode = "scan"
	ModeCSV  ReportMode = "csv" // regenerated from the dataset, no rescan
)

// ChartSection is one cadence's block in the report.
type ChartSection struct {
	Heading string
	Cadence Cadence
	Total   int
	Chart   template.HTML
}

// ReportData is everything the report template consumes. Scan is nil
// when the report is regenerated from the CSV; the template then
// omits the scan-only sections instead of faking them.
type ReportData struct {
	RunID       string
	GeneratedAt time.Time
	Mode        ReportMode

	Stats    SeriesStats
	Scan     *ScanStats
	Insights []string

	Sections     []ChartSection
	WeekdayChart template.HTML
}

// BuildReport assembles the report data from a finalized series set.
func BuildReport(set SeriesSet, scan *ScanStats, runID string, generatedAt time.Time) ReportData {
	stats := ComputeSeriesStats(set)

	dec := DecomposeWeekly(set.Daily)
	anomalies := Anomalies(set.Daily, dec)

	data := ReportData{
		RunID:       runID,
		GeneratedAt: generatedAt,
		Mode:        ModeScan,
		Stats:       stats,
		Scan:        scan,
		Insights:    Insights(stats, scan, set),
		Sections: []ChartSection{
			{
				Heading: "Daily captures",
				Cadence: Daily,
				Total:   set.Daily.Total(),
				Chart:   SeriesChart("Daily captures (raw vs smoothed)", set.Daily, anomalies),
			},
			{
				Heading: "Weekly captures (ISO weeks)",
				Cadence: Weekly,
				Total:   set.Weekly.Total(),
				Chart:   SeriesChart("Weekly captures (raw vs smoothed)", set.Weekly, nil),
			},
			{
				Heading: "Monthly captures",
				Cadence: Monthly,
				Total:   set.Monthly.Total(),
				Chart:   SeriesChart("Monthly captures (raw vs smoothed)", set.Monthly, nil),
			},
		},
	}

	if scan == nil {
		data.Mode = ModeCSV
	} else {
		data.WeekdayChart = WeekdayChart(scan.WeekdayCounts)
	}

	return data
}

// RenderReport writes the self-contained HTML report.
func RenderReport(w io.Writer, data ReportData) error {
	tpl, err := template.New("report").Funcs(sprig.HtmlFuncMap()).Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}
	if err := tpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}
