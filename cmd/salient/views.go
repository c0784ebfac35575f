package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"salient/internal/api"
	"salient/internal/salience"
)

func formatClock(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	// Round to hundredths first so 59.996 carries into the minute.
	hundredths := int64(math.Round(sec * 100))
	minutes := hundredths / 6000
	rest := hundredths % 6000
	return fmt.Sprintf("%d:%02d.%02d", minutes, rest/100, rest%100)
}

func formatDbfs(v float64) string {
	if math.IsInf(v, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatPercent(fraction float64) string {
	return fmt.Sprintf("%.0f%%", math.Max(0, math.Min(1, fraction))*100)
}

func renderSegments(result *salience.AnalysisResult) string {
	columns := []tableColumn{
		{Header: "#", Numeric: true},
		{Header: "Start", Numeric: true},
		{Header: "End", Numeric: true},
		{Header: "Duration", Numeric: true},
		{Header: "Peak dBFS", Numeric: true},
		{Header: "Min dBFS", Numeric: true},
		{Header: "Avg RMS", Numeric: true},
		{Header: "Keywords"},
	}
	rows := make([][]string, 0, len(result.Segments))
	for i, seg := range result.Segments {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatClock(seg.StartSec),
			formatClock(seg.EndSec),
			fmt.Sprintf("%.2fs", seg.DurationSec),
			formatDbfs(seg.PeakDbfs),
			formatDbfs(seg.MinDbfs),
			strconv.FormatFloat(seg.AvgRms, 'f', 4, 64),
			strings.Join(seg.Keywords, ", "),
		})
	}
	return renderTable(columns, rows, "")
}

func resultSummary(result *salience.AnalysisResult) string {
	noun := "segments"
	if len(result.Segments) == 1 {
		noun = "segment"
	}
	return fmt.Sprintf("%s: %d salient %s in %s", result.Filename, len(result.Segments), noun, formatClock(result.DurationSec))
}

func renderJobs(jobs []api.Job) string {
	columns := []tableColumn{
		{Header: "ID"},
		{Header: "File"},
		{Header: "Status"},
		{Header: "Progress", Numeric: true},
		{Header: "Segments", Numeric: true},
		{Header: "Updated"},
		{Header: "Message"},
	}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		segments := ""
		if job.Status == "done" {
			segments = strconv.Itoa(job.SegmentCount)
		}
		rows = append(rows, []string{
			job.FileID,
			job.Filename,
			jobStatusLabel(job.Status),
			formatPercent(job.Progress),
			segments,
			job.UpdatedAt,
			job.Message,
		})
	}
	return renderTable(columns, rows, fmt.Sprintf("%d job(s)", len(jobs)))
}
