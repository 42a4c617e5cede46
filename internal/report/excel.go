// Package report renders the rolling open-hours window as an Excel
// workbook for offline review.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"storehours/internal/hours"
	"storehours/internal/model"
	"storehours/internal/slots"
	"storehours/internal/storeapi"
)

const sheetName = "Store Hours"

var headerColumns = []string{"Date", "Weekday", "Open", "First Slot", "Last Slot", "Open Slots"}

// Source supplies the schedule and override snapshots for the report.
type Source interface {
	StoreTimes(ctx context.Context) ([]hours.WeeklyEntry, storeapi.Source, error)
	Overrides(ctx context.Context, month, day int) ([]hours.Override, storeapi.Source, error)
}

// Generator builds per-day summaries and writes them as a workbook.
type Generator struct {
	resolver *hours.Resolver
	data     Source
}

// NewGenerator creates a report generator.
func NewGenerator(resolver *hours.Resolver, data Source) *Generator {
	return &Generator{resolver: resolver, data: data}
}

// Summaries resolves every quarter-hour slot for each date of the
// window starting at from.
func (g *Generator) Summaries(ctx context.Context, from time.Time, days int) ([]model.DaySummary, error) {
	if days <= 0 {
		days = slots.DefaultWindowDays
	}

	schedule, _, err := g.data.StoreTimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch store times: %w", err)
	}

	labels := slots.TimeSlots()
	summaries := make([]model.DaySummary, 0, days)
	for _, entry := range slots.DateList(from, days) {
		overrides, _, err := g.data.Overrides(ctx, entry.Month, entry.Day)
		if err != nil {
			overrides = nil
		}

		summary := model.DaySummary{
			Date:  entry.Date.Format("2006-01-02"),
			Month: entry.Month,
			Day:   entry.Day,
		}
		for _, slot := range labels {
			if g.resolver.IsOpen(schedule, overrides, entry.Month, entry.Day, slot) {
				summary.OpenSlots = append(summary.OpenSlots, slot)
			}
		}
		summary.OpenAtAll = len(summary.OpenSlots) > 0
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// WriteWorkbook resolves the window and writes the workbook to w.
func (g *Generator) WriteWorkbook(ctx context.Context, w io.Writer, from time.Time, days int) error {
	summaries, err := g.Summaries(ctx, from, days)
	if err != nil {
		return err
	}

	file := excelize.NewFile()
	defer file.Close()

	file.SetSheetName("Sheet1", sheetName)
	if err := writeHeader(file); err != nil {
		return err
	}

	for i, summary := range summaries {
		if err := writeRow(file, i+2, summary); err != nil {
			return err
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(file *excelize.File) error {
	for i, col := range headerColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheetName, cell, col); err != nil {
			return err
		}
	}

	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(headerColumns), 1)
		_ = file.SetCellStyle(sheetName, startCell, endCell, style)
	}
	return nil
}

func writeRow(file *excelize.File, rowNum int, summary model.DaySummary) error {
	date, err := time.Parse("2006-01-02", summary.Date)
	if err != nil {
		return fmt.Errorf("parse summary date %q: %w", summary.Date, err)
	}

	openLabel := "Closed"
	firstSlot, lastSlot := "", ""
	if summary.OpenAtAll {
		openLabel = "Open"
		firstSlot = slots.FormatSlot(summary.OpenSlots[0])
		lastSlot = slots.FormatSlot(summary.OpenSlots[len(summary.OpenSlots)-1])
	}

	row := []interface{}{
		summary.Date,
		date.Weekday().String(),
		openLabel,
		firstSlot,
		lastSlot,
		len(summary.OpenSlots),
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheetName, cell, val); err != nil {
			return err
		}
	}
	return nil
}
