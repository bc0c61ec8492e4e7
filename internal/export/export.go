// Package export writes the category forest to a spreadsheet.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/Veraticus/commerce-admin/internal/tree"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SheetCategories = "Categories"
	SheetSummary    = "Summary"
)

// Headers of the categories sheet, in column order.
var Headers = []string{"Tree", "ID", "Name", "Level", "Status", "Products", "Parent ID", "Path", "Description"}

// PathSeparator joins ancestor names in the Path column.
const PathSeparator = " > "

// Summary describes an exported forest.
type Summary struct {
	Filter   model.StatusFilter
	Total    int
	Active   int
	Inactive int
	Roots    int
	MaxDepth int
}

// Summarize counts the nodes of forest.
func Summarize(forest []*model.Category, filter model.StatusFilter) Summary {
	s := Summary{Filter: filter, Roots: len(forest)}
	tree.Walk(forest, func(c *model.Category, level int) bool {
		s.Total++
		if c.IsActive {
			s.Active++
		} else {
			s.Inactive++
		}
		if level > s.MaxDepth {
			s.MaxDepth = level
		}
		return true
	})
	return s
}

// WriteXLSX writes forest as a workbook with one row per category in
// pre-order and a summary sheet.
func WriteXLSX(w io.Writer, forest []*model.Category, filter model.StatusFilter) (Summary, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetCategories); err != nil {
		return Summary{}, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, header := range Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return Summary{}, err
		}
		if err := f.SetCellValue(SheetCategories, cell, header); err != nil {
			return Summary{}, fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to create style: %w", err)
	}
	inactiveStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "808080", Italic: true}})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to create style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Headers))
	_ = f.SetCellStyle(SheetCategories, "A1", lastCol+"1", headerStyle)

	row := 2
	var writeErr error
	var ancestors []string
	var visit func(nodes []*model.Category, level int)
	visit = func(nodes []*model.Category, level int) {
		for _, c := range nodes {
			if c == nil || writeErr != nil {
				continue
			}
			ancestors = append(ancestors[:level], c.Name)
			writeErr = writeRow(f, row, c, level, strings.Join(ancestors, PathSeparator))
			if writeErr == nil && !c.IsActive {
				writeErr = f.SetCellStyle(SheetCategories, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), inactiveStyle)
			}
			row++
			visit(c.Children, level+1)
		}
	}
	visit(forest, 0)
	if writeErr != nil {
		return Summary{}, fmt.Errorf("failed to write category row: %w", writeErr)
	}

	_ = f.SetColWidth(SheetCategories, "A", "A", 40)
	_ = f.SetColWidth(SheetCategories, "C", "C", 30)
	_ = f.SetColWidth(SheetCategories, "H", "I", 50)
	_ = f.SetPanes(SheetCategories, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	summary := Summarize(forest, filter)
	if err := writeSummary(f, summary, headerStyle); err != nil {
		return Summary{}, err
	}

	if _, err := f.WriteTo(w); err != nil {
		return Summary{}, fmt.Errorf("failed to write workbook: %w", err)
	}
	return summary, nil
}

func writeRow(f *excelize.File, row int, c *model.Category, level int, path string) error {
	var products any
	if c.ProductCount != nil {
		products = *c.ProductCount
	}
	var parent any
	if c.ParentID != nil {
		parent = *c.ParentID
	}

	values := []any{
		tree.Indent(level) + c.Name,
		c.ID,
		c.Name,
		level,
		c.StatusLabel(),
		products,
		parent,
		path,
		c.Description,
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetCategories, cell, &values)
}

func writeSummary(f *excelize.File, s Summary, headerStyle int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]any{
		{"Filter", string(s.Filter)},
		{"Categories", s.Total},
		{"Active", s.Active},
		{"Inactive", s.Inactive},
		{"Roots", s.Roots},
		{"Max depth", s.MaxDepth},
	}
	for i, values := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &values); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	_ = f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle)
	_ = f.SetColWidth(SheetSummary, "A", "A", 20)
	return nil
}
