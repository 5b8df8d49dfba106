// Package report writes period and force results to Excel workbooks and a
// PDF calculation sheet.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/alexiusacademia/goeq/internal/seismic"
)

const (
	PeriodSheet = "Period Calculation"
	ForceSheet  = "EQForce Summary"

	maxSheetName = 31
)

var (
	periodColumns  = []string{"Group", "Direction", "Period (s)", "Sum(wu)", "Sum(wuu)"}
	forceColumns   = []string{"Group", "Direction", "Total Force", "EQ Factor", "Sum(wu) (beta)", "Sum(wuu) (zeta)", "Total Mass", "Base Shear"}
	periodDetail   = []string{"Node", "Mass", "Displacement"}
	forceDetail    = []string{"Node", "Mass", "Displacement", "wu", "wuu", "Force_Origin", "Force"}
	verticalDetail = []string{"Node", "Mass", "Force"}
)

// Characters Excel refuses in sheet names
var sheetNameReplacer = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")")

// Number formats: summary values to four decimals, node values in
// scientific notation.
const (
	summaryFormat = "0.0000"
	detailFormat  = "0.000000E+00"
)

type book struct {
	f      *excelize.File
	used   map[string]bool
	styles map[string]int
}

func newBook(summary string) (*book, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &book{f: f, used: map[string]bool{summary: true}, styles: make(map[string]int)}, nil
}

func (b *book) style(format string) (int, error) {
	if id, ok := b.styles[format]; ok {
		return id, nil
	}
	id, err := b.f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return 0, err
	}
	b.styles[format] = id
	return id, nil
}

// sheetName builds "<group>-<dir>" cut to the Excel limit, made unique
// within the workbook.
func (b *book) sheetName(group, dir string) string {
	base := truncate(sheetNameReplacer.Replace(group+"-"+dir), maxSheetName)
	name := base
	for i := 2; b.used[name]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	b.used[name] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// writeRows writes a header row and data rows; numeric cells get format.
func (b *book) writeRows(sheet string, header []string, rows [][]any, format string) error {
	if idx, _ := b.f.GetSheetIndex(sheet); idx < 0 {
		if _, err := b.f.NewSheet(sheet); err != nil {
			return err
		}
	}
	if err := b.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	styleID, err := b.style(format)
	if err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := b.f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		last, err := excelize.CoordinatesToCellName(len(header), len(rows)+1)
		if err != nil {
			return err
		}
		if err := b.f.SetCellStyle(sheet, "B2", last, styleID); err != nil {
			return err
		}
	}
	return b.f.SetColWidth(sheet, "A", columnName(len(header)), 16)
}

func columnName(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return "A"
	}
	return name
}

func (b *book) save(path string) error {
	defer b.f.Close()
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	b.f.SetActiveSheet(0)
	if err := b.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// value returns the map entry or nil so that absent values stay blank.
func value(m seismic.NodeMap, node string) any {
	if v, ok := m[node]; ok {
		return v
	}
	return nil
}

// unionNodes returns every node of the maps, sorted numeric-first.
func unionNodes(maps ...seismic.NodeMap) []string {
	seen := make(map[string]struct{})
	var nodes []string
	for _, m := range maps {
		for n := range m {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				nodes = append(nodes, n)
			}
		}
	}
	seismic.SortNodes(nodes)
	return nodes
}

// WritePeriodWorkbook writes the period summary sheet and one mass and
// displacement sheet per group.
func WritePeriodWorkbook(path string, results []*seismic.PeriodResult) error {
	b, err := newBook(PeriodSheet)
	if err != nil {
		return err
	}

	summary := make([][]any, 0, len(results))
	for _, r := range results {
		summary = append(summary, []any{r.Group, r.Axis.String(), r.Period, r.Beta, r.Zeta})
	}
	if err := b.writeRows(PeriodSheet, periodColumns, summary, summaryFormat); err != nil {
		_ = b.f.Close()
		return err
	}

	for _, r := range results {
		nodes := unionNodes(r.Mass, r.Disp)
		if len(nodes) == 0 {
			continue
		}
		rows := make([][]any, 0, len(nodes))
		for _, n := range nodes {
			rows = append(rows, []any{n, value(r.Mass, n), value(r.Disp, n)})
		}
		if err := b.writeRows(b.sheetName(r.Group, r.Axis.String()), periodDetail, rows, detailFormat); err != nil {
			_ = b.f.Close()
			return err
		}
	}
	return b.save(path)
}

// WriteForceWorkbook writes the force summary sheet and one nodal force
// sheet per group. Vertical groups carry no displacement columns and leave
// beta and zeta blank in the summary.
func WriteForceWorkbook(path string, results []*seismic.ForceResult) error {
	b, err := newBook(ForceSheet)
	if err != nil {
		return err
	}

	summary := make([][]any, 0, len(results))
	for _, r := range results {
		var beta, zeta any
		if !r.Axis.Vertical() {
			beta, zeta = r.Beta, r.Zeta
		}
		summary = append(summary, []any{
			r.Group, r.Axis.String(), r.TotalForce(), r.Factor, beta, zeta, r.TotalMass, r.BaseShear,
		})
	}
	if err := b.writeRows(ForceSheet, forceColumns, summary, summaryFormat); err != nil {
		_ = b.f.Close()
		return err
	}

	for _, r := range results {
		nodes := r.Final.Nodes()
		if len(nodes) == 0 {
			continue
		}
		header := forceDetail
		rows := make([][]any, 0, len(nodes))
		for _, n := range nodes {
			if r.Axis.Vertical() {
				header = verticalDetail
				rows = append(rows, []any{n, value(r.Mass, n), value(r.Final, n)})
				continue
			}
			rows = append(rows, []any{
				n, value(r.Mass, n), value(r.Disp, n), value(r.WU, n), value(r.WUU, n),
				value(r.Raw, n), value(r.Final, n),
			})
		}
		if err := b.writeRows(b.sheetName(r.Group, r.Axis.String()), header, rows, detailFormat); err != nil {
			_ = b.f.Close()
			return err
		}
	}
	return b.save(path)
}
