// Package report writes organize results to an .xlsx workbook.
//
// The workbook has a Files sheet with one row per file and a Summary sheet with
// per-category counts. Dry-run plans are written the same way, with status "planned".
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/dirkit/internal/organizer"
)

const (
	FilesSheet   = "Files"
	SummarySheet = "Summary"
)

var (
	filesHeader   = []string{"File", "Category", "Status", "Source", "Destination", "Reason"}
	summaryHeader = []string{"Category", "Moved", "Failed"}
)

// Rows returns the Files sheet rows for res, header first.
func Rows(res *organizer.OrganizeResult) [][]string {
	rows := [][]string{filesHeader}
	for _, f := range res.Files {
		rows = append(rows, []string{f.Name, f.Category, string(f.Status), f.Source, f.Destination, f.Reason})
	}
	return rows
}

// Summary returns the Summary sheet rows for res: one row per category seen, in
// table order when order is given, then a Total row.
func Summary(res *organizer.OrganizeResult, order []string) [][]string {
	type counts struct{ moved, failed int }
	byCategory := make(map[string]*counts)
	for _, f := range res.Files {
		c, ok := byCategory[f.Category]
		if !ok {
			c = &counts{}
			byCategory[f.Category] = c
		}
		if f.Status == organizer.StatusFailed {
			c.failed++
		} else {
			c.moved++
		}
	}

	var names []string
	seen := make(map[string]bool)
	for _, name := range order {
		if _, ok := byCategory[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range byCategory {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	rows := [][]string{summaryHeader}
	for _, name := range names {
		c := byCategory[name]
		rows = append(rows, []string{name, fmt.Sprint(c.moved), fmt.Sprint(c.failed)})
	}
	rows = append(rows, []string{"Total", fmt.Sprint(res.Moved), fmt.Sprint(res.Failed)})
	return rows
}

// WriteFile saves the report for res to path.
func WriteFile(res *organizer.OrganizeResult, order []string, path string) error {
	f, err := build(res, order)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	return nil
}

// Write streams the report for res to w.
func Write(res *organizer.OrganizeResult, order []string, w io.Writer) error {
	f, err := build(res, order)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("could not write report: %w", err)
	}
	return nil
}

func build(res *organizer.OrganizeResult, order []string) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), FilesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not create sheet %q: %w", SummarySheet, err)
	}

	if err := fill(f, FilesSheet, Rows(res)); err != nil {
		f.Close()
		return nil, err
	}
	if err := fill(f, SummarySheet, Summary(res, order)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fill(f *excelize.File, sheet string, rows [][]string) error {
	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("invalid cell coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet, cellName, cell); err != nil {
				return fmt.Errorf("could not set cell %s: %w", cellName, err)
			}
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("could not freeze header of %s: %w", sheet, err)
	}
	return nil
}
