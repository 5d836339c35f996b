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
	"bytes"
	"strings"
	"testing"
	"time"
)

// Regenerating the report from the CSV must reproduce the charts byte
// for byte; they are built from series values only.
func TestChartsReproducibleFromCSV(t *testing.T) {
	set := finalizedTestSet(t)

	var buf bytes.Buffer
	if err := WriteReportCSV(&buf, set); err != nil {
		t.Fatal(err)
	}
	loaded, err := ReadReportCSV(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}

	for _, cadence := range Cadences {
		orig, _ := set.ByCadence(cadence)
		reload, _ := loaded.ByCadence(cadence)
		a := SeriesChart("captures", orig, nil)
		b := SeriesChart("captures", reload, nil)
		if a != b {
			t.Errorf("%s chart differs after a CSV round trip", cadence)
		}
	}
}

func TestSeriesChartShape(t *testing.T) {
	set := finalizedTestSet(t)

	daily := string(SeriesChart("daily", set.Daily, nil))
	if !strings.Contains(daily, "<polyline") {
		t.Error("daily chart should use a polyline")
	}
	if !strings.Contains(daily, set.Daily.Buckets[0].Key) {
		t.Error("daily chart is missing the first period label")
	}

	monthly := string(SeriesChart("monthly", set.Monthly, nil))
	if !strings.Contains(monthly, "<rect") {
		t.Error("monthly chart should use bars")
	}

	// anomaly markers appear only for flagged buckets
	anomalies := make([]bool, len(set.Daily.Buckets))
	anomalies[3] = true
	flagged := string(SeriesChart("daily", set.Daily, anomalies))
	if strings.Count(flagged, "<circle") != 1 {
		t.Errorf("expected exactly one anomaly marker, got %d", strings.Count(flagged, "<circle"))
	}
	if strings.Contains(daily, "<circle") {
		t.Error("unflagged chart should have no anomaly markers")
	}
}

func TestSeriesChartEscapesTitle(t *testing.T) {
	set := finalizedTestSet(t)
	svg := string(SeriesChart(`<script>alert("x")</script>`, set.Daily, nil))
	if strings.Contains(svg, "<script>") {
		t.Error("chart title was not escaped")
	}
}

func TestBuildReportModes(t *testing.T) {
	set := finalizedTestSet(t)
	now := time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC)

	scan := &ScanStats{Resolved: set.Daily.Total(), HashingEnabled: true}
	scan.WeekdayCounts[int(time.Saturday)] = 40

	full := BuildReport(set, scan, "run-1", now)
	if full.Mode != ModeScan {
		t.Errorf("Mode = %s, want %s", full.Mode, ModeScan)
	}
	if full.WeekdayChart == "" {
		t.Error("scan report should carry the weekday chart")
	}
	if len(full.Sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(full.Sections))
	}
	for i, cadence := range Cadences {
		if full.Sections[i].Cadence != cadence {
			t.Errorf("section %d cadence = %s, want %s", i, full.Sections[i].Cadence, cadence)
		}
	}

	csvOnly := BuildReport(set, nil, "run-2", now)
	if csvOnly.Mode != ModeCSV {
		t.Errorf("Mode = %s, want %s", csvOnly.Mode, ModeCSV)
	}
	if csvOnly.WeekdayChart != "" {
		t.Error("CSV-only report must not fake a weekday chart")
	}
	if csvOnly.Scan != nil {
		t.Error("CSV-only report must not carry scan stats")
	}
}

func TestRenderReport(t *testing.T) {
	set := finalizedTestSet(t)
	now := time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := RenderReport(&buf, BuildReport(set, nil, "run-xyz", now)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"run-xyz",
		"<svg",
		"Daily captures",
		"Monthly captures",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered report is missing %q", want)
		}
	}
	// self-contained: no external scripts, stylesheets, or images
	for _, banned := range []string{"<script src", "<link rel", "<img src", "https://cdn"} {
		if strings.Contains(out, banned) {
			t.Errorf("report references an external resource: %q", banned)
		}
	}
}
