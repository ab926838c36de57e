// Package report summarizes the telemetry/alerts audit CSV history for
// engineering review: percentile/summary statistics (github.com/montanaflynn/stats)
// and an .xlsx export (github.com/xuri/excelize/v2), standing in for
// plot_monitoring.py's tabular output without reimplementing its plots
// (plotting itself stays out of scope here).
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"
)

// ColumnSummary is the percentile/summary breakdown for one numeric
// audit column.
type ColumnSummary struct {
	Column string
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	P25    float64
	Median float64
	P75    float64
	P95    float64
	Max    float64
}

// Summarize loads a telemetry audit CSV and computes a ColumnSummary
// for every numeric column (every column but "timestamp" and "status").
func Summarize(csvPath string) ([]ColumnSummary, error) {
	header, rows, err := readCSV(csvPath)
	if err != nil {
		return nil, err
	}

	var summaries []ColumnSummary
	for col, name := range header {
		if name == "timestamp" || name == "status" {
			continue
		}
		values, err := columnFloats(rows, col)
		if err != nil {
			return nil, fmt.Errorf("parse column %s: %w", name, err)
		}
		if len(values) == 0 {
			continue
		}
		s, err := summarizeColumn(name, values)
		if err != nil {
			return nil, fmt.Errorf("summarize column %s: %w", name, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func summarizeColumn(name string, values []float64) (ColumnSummary, error) {
	mean, err := stats.Mean(values)
	if err != nil {
		return ColumnSummary{}, err
	}
	stdDev, err := stats.StandardDeviation(values)
	if err != nil {
		return ColumnSummary{}, err
	}
	min, err := stats.Min(values)
	if err != nil {
		return ColumnSummary{}, err
	}
	max, err := stats.Max(values)
	if err != nil {
		return ColumnSummary{}, err
	}
	median, err := stats.Median(values)
	if err != nil {
		return ColumnSummary{}, err
	}
	p25, err := stats.Percentile(values, 25)
	if err != nil {
		return ColumnSummary{}, err
	}
	p75, err := stats.Percentile(values, 75)
	if err != nil {
		return ColumnSummary{}, err
	}
	p95, err := stats.Percentile(values, 95)
	if err != nil {
		return ColumnSummary{}, err
	}

	return ColumnSummary{
		Column: name, Count: len(values), Mean: mean, StdDev: stdDev,
		Min: min, P25: p25, Median: median, P75: p75, P95: p95, Max: max,
	}, nil
}

// WriteXLSX renders both the raw audit CSV and the computed summaries
// into a two-sheet workbook at path.
func WriteXLSX(path, csvPath string, summaries []ColumnSummary) error {
	header, rows, err := readCSV(csvPath)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const dataSheet = "Telemetry"
	idx, err := f.NewSheet(dataSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(dataSheet, cell, h)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(dataSheet, cell, v)
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	summaryHeader := []string{"column", "count", "mean", "stddev", "min", "p25", "median", "p75", "p95", "max"}
	for i, h := range summaryHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(summarySheet, cell, h)
	}
	for r, s := range summaries {
		rowIdx := r + 2
		values := []interface{}{s.Column, s.Count, s.Mean, s.StdDev, s.Min, s.P25, s.Median, s.P75, s.P95, s.Max}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
			f.SetCellValue(summarySheet, cell, v)
		}
	}

	return f.SaveAs(path)
}

func readCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("empty audit csv: %s", path)
	}
	return all[0], all[1:], nil
}

func columnFloats(rows [][]string, col int) ([]float64, error) {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		v, err := strconv.ParseFloat(row[col], 64)
		if err != nil {
			continue // non-numeric column (e.g. status), skip silently
		}
		out = append(out, v)
	}
	return out, nil
}
