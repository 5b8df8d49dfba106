package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Exported engine tables are laid out as
//
//	row 1  TABLE:  <name>
//	row 2  field names
//	row 3  units (blank under text fields)
//	row 4+ data
//
// The reader only relies on the header row carrying the key field.

const (
	sheetGroupAssign   = "Groups 2 - Assignments"
	sheetCaseDefs      = "Load Case Definitions"
	sheetPatternDefs   = "Load Pattern Definitions"
	sheetStaticAssigns = "Case - Static 1 - Load Assigns"
	sheetDisplacements = "Joint Displacements"
	sheetMasses        = "Assembled Joint Masses"
	sheetJointForces   = "Joint Loads - Force"
	sheetCoordSystems  = "Coordinate Systems"
	sheetProgramCtl    = "Program Control"
)

// headerScanRows bounds the search for the field name row.
const headerScanRows = 5

type table struct {
	sheet string
	cols  map[string]int
	rows  [][]string
	first int // spreadsheet row number of rows[0]
}

func readTable(f *excelize.File, sheet, key string) (*table, error) {
	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	header := -1
	for i := 0; i < len(all) && i < headerScanRows; i++ {
		for _, cell := range all[i] {
			if strings.TrimSpace(cell) == key {
				header = i
				break
			}
		}
		if header >= 0 {
			break
		}
	}
	if header < 0 {
		return nil, fmt.Errorf("sheet %q has no %q field", sheet, key)
	}

	t := &table{sheet: sheet, cols: make(map[string]int)}
	for i, name := range all[header] {
		t.cols[strings.TrimSpace(name)] = i
	}

	start := header + 1
	// Units row: the key field is text, so its unit cell is blank.
	if start < len(all) && t.cell(all[start], key) == "" {
		start++
	}
	t.first = start + 1
	for _, row := range all[start:] {
		if t.cell(row, key) == "" {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func (t *table) has(col string) bool {
	_, ok := t.cols[col]
	return ok
}

func (t *table) cell(row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// float reads a numeric field; blank cells are zero.
func (t *table) float(row []string, col string) (float64, error) {
	s := t.cell(row, col)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("sheet %q: field %s: %w", t.sheet, col, err)
	}
	return v, nil
}

func (t *table) vector(row []string, cols [6]string) (Vector, error) {
	var v Vector
	for i, c := range cols {
		x, err := t.float(row, c)
		if err != nil {
			return v, err
		}
		v[i] = x
	}
	return v, nil
}

func hasSheet(f *excelize.File, sheet string) bool {
	idx, err := f.GetSheetIndex(sheet)
	return err == nil && idx >= 0
}

// writeTable replaces a sheet with a freshly laid out table.
func writeTable(f *excelize.File, sheet string, fields, units []string, rows [][]any) error {
	if hasSheet(f, sheet) {
		if err := f.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("clear sheet %q: %w", sheet, err)
		}
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", sheet, err)
	}

	if err := f.SetCellValue(sheet, "A1", "TABLE:  "+sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A2", &fields); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A3", &units); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write sheet %q row %d: %w", sheet, i+4, err)
		}
	}
	return nil
}
