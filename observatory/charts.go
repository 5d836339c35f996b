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
	"fmt"
	"html"
	"html/template"
	"strconv"
	"strings"
)

// Charts are rendered as inline SVG so the report is fully
// self-contained, and deterministically from series values only, so
// regenerating from the same CSV reproduces the plots byte for byte.

const (
	chartWidth    = 920
	chartHeight   = 260
	chartPadLeft  = 48
	chartPadTop   = 16
	chartPadBot   = 34
	chartPadRight = 16
)

// chart colors, lifted from the palette of the report theme
const (
	colorRaw      = "#0b7a75"
	colorSmoothed = "#ff8c42"
	colorAnomaly  = "#d95d39"
	colorAxis     = "rgba(0,0,0,0.35)"
	colorGrid     = "rgba(0,0,0,0.08)"
)

// SeriesChart renders one cadence's raw counts (as a line for daily,
// bars otherwise) with the smoothed series drawn over it, plus flagged
// anomaly markers when given. anomalies may be nil or shorter than the
// series.
func SeriesChart(title string, s Series, anomalies []bool) template.HTML {
	var sb strings.Builder

	maxVal := 0
	for _, b := range s.Buckets {
		if b.Raw > maxVal {
			maxVal = b.Raw
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	plotW := float64(chartWidth - chartPadLeft - chartPadRight)
	plotH := float64(chartHeight - chartPadTop - chartPadBot)
	n := len(s.Buckets)

	xAt := func(i int) float64 {
		if n <= 1 {
			return chartPadLeft + plotW/2
		}
		return chartPadLeft + plotW*float64(i)/float64(n-1)
	}
	yAt := func(v float64) float64 {
		return chartPadTop + plotH*(1-v/float64(maxVal))
	}

	fmt.Fprintf(&sb, `<svg class="chart" role="img" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`,
		chartWidth, chartHeight)
	fmt.Fprintf(&sb, `<title>%s</title>`, html.EscapeString(title))

	// horizontal gridlines at quarters of the max
	for i := 0; i <= 4; i++ {
		v := float64(maxVal) * float64(i) / 4
		y := coord(yAt(v))
		fmt.Fprintf(&sb, `<line x1="%d" y1="%s" x2="%d" y2="%s" stroke="%s"/>`,
			chartPadLeft, y, chartWidth-chartPadRight, y, colorGrid)
		fmt.Fprintf(&sb, `<text x="%d" y="%s" text-anchor="end" dy="4" class="tick">%s</text>`,
			chartPadLeft-6, y, formatTick(v))
	}

	if s.Cadence == Daily {
		// raw counts as a polyline
		sb.WriteString(`<polyline fill="none" stroke="` + colorRaw + `" stroke-width="1.5" points="`)
		for i, b := range s.Buckets {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(coord(xAt(i)) + "," + coord(yAt(float64(b.Raw))))
		}
		sb.WriteString(`"/>`)
	} else {
		// raw counts as bars
		barW := plotW / float64(n) * 0.7
		for i, b := range s.Buckets {
			x := xAt(i) - barW/2
			y := yAt(float64(b.Raw))
			fmt.Fprintf(&sb, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" opacity="0.65"/>`,
				coord(x), coord(y), coord(barW), coord(float64(chartHeight-chartPadBot)-y), colorRaw)
		}
	}

	// smoothed overlay
	sb.WriteString(`<polyline fill="none" stroke="` + colorSmoothed + `" stroke-width="2" points="`)
	for i, b := range s.Buckets {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(coord(xAt(i)) + "," + coord(yAt(b.Smoothed)))
	}
	sb.WriteString(`"/>`)

	// anomaly markers
	for i, b := range s.Buckets {
		if i >= len(anomalies) || !anomalies[i] {
			continue
		}
		fmt.Fprintf(&sb, `<circle cx="%s" cy="%s" r="3.5" fill="%s"><title>%s: %d</title></circle>`,
			coord(xAt(i)), coord(yAt(float64(b.Raw))), colorAnomaly, html.EscapeString(b.Key), b.Raw)
	}

	// x axis with first/last period labels
	fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s"/>`,
		chartPadLeft, chartHeight-chartPadBot, chartWidth-chartPadRight, chartHeight-chartPadBot, colorAxis)
	if n > 0 {
		fmt.Fprintf(&sb, `<text x="%d" y="%d" class="tick">%s</text>`,
			chartPadLeft, chartHeight-chartPadBot+18, html.EscapeString(s.Buckets[0].Key))
		fmt.Fprintf(&sb, `<text x="%d" y="%d" text-anchor="end" class="tick">%s</text>`,
			chartWidth-chartPadRight, chartHeight-chartPadBot+18, html.EscapeString(s.Buckets[n-1].Key))
	}

	sb.WriteString(`</svg>`)
	//nolint:gosec // constructed entirely from escaped/numeric content
	return template.HTML(sb.String())
}

// WeekdayChart renders the capture-count-by-weekday profile from a
// scan (Monday first, to match the ISO weeks elsewhere).
func WeekdayChart(counts [7]int) template.HTML {
	labels := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	// time.Weekday is Sunday-based
	order := []int{1, 2, 3, 4, 5, 6, 0}

	maxVal := 1
	for _, c := range counts {
		if c > maxVal {
			maxVal = c
		}
	}

	const w, h, pad = 460, 180, 26
	plotH := float64(h - 2*pad)
	barW := float64(w-2*pad) / 7 * 0.7

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg class="chart" role="img" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`, w, h)
	sb.WriteString(`<title>Captures by weekday</title>`)
	for i, idx := range order {
		c := counts[idx]
		x := float64(pad) + float64(w-2*pad)*(float64(i)+0.5)/7
		barH := plotH * float64(c) / float64(maxVal)
		fmt.Fprintf(&sb, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" opacity="0.75"/>`,
			coord(x-barW/2), coord(float64(h-pad)-barH), coord(barW), coord(barH), colorRaw)
		fmt.Fprintf(&sb, `<text x="%s" y="%d" text-anchor="middle" class="tick">%s</text>`,
			coord(x), h-pad+16, labels[i])
	}
	sb.WriteString(`</svg>`)
	//nolint:gosec // constructed entirely from escaped/numeric content
	return template.HTML(sb.String())
}

// coord formats an SVG coordinate with fixed precision; fixed-width
// formatting is part of the byte-for-byte reproducibility contract.
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatTick(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
