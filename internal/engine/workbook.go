package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/alexiusacademia/goeq/internal/loadcase"
	"github.com/alexiusacademia/goeq/internal/seismic"
)

var (
	resultFields = [6]string{"U1", "U2", "U3", "R1", "R2", "R3"}
	forceFields  = [6]string{"F1", "F2", "F3", "M1", "M2", "M3"}
)

// Workbook is a session on a workbook of exported engine tables. Results
// and assignments are read once on open; defined patterns, cases and
// joint loads are written back as tables on Save.
type Workbook struct {
	*Memory

	file   *excelize.File
	path   string
	output string

	// exported is the units the results were written in; zero when the
	// export carries no Program Control table.
	exported loadcase.Units
}

// OpenWorkbook reads the model tables from an .xlsx export.
func OpenWorkbook(ctx context.Context, path string) (*Workbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, Wrap("open", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, Wrap("open", fmt.Errorf("failed to open model workbook: %w", err))
	}

	w := &Workbook{Memory: NewMemory(), file: f, path: path}
	if err := w.load(); err != nil {
		_ = f.Close()
		return nil, Wrap("open", err)
	}
	return w, nil
}

// SetOutput makes Save write to another file instead of overwriting the
// opened one.
func (w *Workbook) SetOutput(path string) {
	w.output = path
}

// Path returns the file the workbook was opened from.
func (w *Workbook) Path() string {
	return w.path
}

// SetUnits only accepts the units the tables were exported in. Loaded
// results are never converted.
func (w *Workbook) SetUnits(ctx context.Context, units loadcase.Units) error {
	if w.exported != 0 && units != w.exported {
		return Wrap("set units", fmt.Errorf("%w: results were exported in %s, run asks for %s (re-export, or run with --units %s)",
			ErrUnitsMismatch, w.exported, units, w.exported))
	}
	return w.Memory.SetUnits(ctx, units)
}

func (w *Workbook) load() error {
	loaders := []struct {
		sheet    string
		required bool
		fn       func() error
	}{
		{sheetProgramCtl, false, w.loadProgramControl},
		{sheetCoordSystems, false, w.loadCoordSystems},
		{sheetGroupAssign, true, w.loadGroups},
		{sheetCaseDefs, false, w.loadCases},
		{sheetPatternDefs, false, w.loadPatterns},
		{sheetStaticAssigns, false, w.loadStaticAssigns},
		{sheetMasses, true, w.loadMasses},
		{sheetDisplacements, true, w.loadDisplacements},
		{sheetJointForces, false, w.loadJointForces},
	}
	for _, l := range loaders {
		if !hasSheet(w.file, l.sheet) {
			if l.required {
				return fmt.Errorf("model workbook has no %q sheet", l.sheet)
			}
			continue
		}
		if err := l.fn(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) loadProgramControl() error {
	t, err := readTable(w.file, sheetProgramCtl, "ProgramName")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		if strings.EqualFold(t.cell(row, "ModelLocked"), "Yes") {
			w.locked = true
		}
		if s := t.cell(row, "CurrUnits"); s != "" {
			u, err := loadcase.ParseUnits(s)
			if err != nil {
				return fmt.Errorf("sheet %q: CurrUnits: %w", sheetProgramCtl, err)
			}
			w.units = u
			w.exported = u
		}
	}
	return nil
}

func (w *Workbook) loadCoordSystems() error {
	t, err := readTable(w.file, sheetCoordSystems, "Name")
	if err != nil {
		return err
	}
	if len(t.rows) > 0 {
		w.coordSystem = t.cell(t.rows[0], "Name")
	}
	return nil
}

func (w *Workbook) loadGroups() error {
	t, err := readTable(w.file, sheetGroupAssign, "GroupName")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		if t.has("ObjectType") && !strings.EqualFold(t.cell(row, "ObjectType"), "Joint") {
			continue
		}
		name := t.cell(row, "GroupName")
		if _, ok := w.groups[name]; !ok {
			w.groupOrder = append(w.groupOrder, name)
		}
		w.groups[name] = append(w.groups[name], t.cell(row, "ObjectLabel"))
	}
	return nil
}

func (w *Workbook) loadCases() error {
	t, err := readTable(w.file, sheetCaseDefs, "Case")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		c := w.addCaseLocked(t.cell(row, "Case"))
		if typ := t.cell(row, "Type"); typ != "" {
			c.Type = typ
		}
	}
	return nil
}

func (w *Workbook) loadPatterns() error {
	t, err := readTable(w.file, sheetPatternDefs, "LoadPat")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		w.addPatternLocked(t.cell(row, "LoadPat"), loadcase.ParsePatternType(t.cell(row, "DesignType")))
	}
	return nil
}

func (w *Workbook) loadStaticAssigns() error {
	t, err := readTable(w.file, sheetStaticAssigns, "Case")
	if err != nil {
		return err
	}
	for i, row := range t.rows {
		sf, err := t.float(row, "LoadSF")
		if err != nil {
			return fmt.Errorf("row %d: %w", t.first+i, err)
		}
		c := w.addCaseLocked(t.cell(row, "Case"))
		c.Loads = append(c.Loads, CaseLoad{
			Type:  t.cell(row, "LoadType"),
			Name:  t.cell(row, "LoadName"),
			Scale: sf,
		})
	}
	return nil
}

func (w *Workbook) loadMasses() error {
	t, err := readTable(w.file, sheetMasses, "Joint")
	if err != nil {
		return err
	}
	for i, row := range t.rows {
		v, err := t.vector(row, resultFields)
		if err != nil {
			return fmt.Errorf("row %d: %w", t.first+i, err)
		}
		joint := t.cell(row, "Joint")
		w.masses[joint] = v
		w.noteJoint(joint)
	}
	return nil
}

// loadDisplacements keeps the first row per joint and case; step-by-step
// output repeats joints.
func (w *Workbook) loadDisplacements() error {
	t, err := readTable(w.file, sheetDisplacements, "Joint")
	if err != nil {
		return err
	}
	for i, row := range t.rows {
		loadCase := t.cell(row, "OutputCase")
		joint := t.cell(row, "Joint")
		byJoint, ok := w.displ[loadCase]
		if !ok {
			byJoint = make(map[string]Vector)
			w.displ[loadCase] = byJoint
		}
		if _, dup := byJoint[joint]; dup {
			continue
		}
		v, err := t.vector(row, resultFields)
		if err != nil {
			return fmt.Errorf("row %d: %w", t.first+i, err)
		}
		byJoint[joint] = v
		w.noteJoint(joint)
	}
	return nil
}

func (w *Workbook) loadJointForces() error {
	t, err := readTable(w.file, sheetJointForces, "Joint")
	if err != nil {
		return err
	}
	for i, row := range t.rows {
		v, err := t.vector(row, forceFields)
		if err != nil {
			return fmt.Errorf("row %d: %w", t.first+i, err)
		}
		pattern := t.cell(row, "LoadPat")
		if _, ok := w.patterns[pattern]; !ok {
			w.addPatternLocked(pattern, loadcase.PatternOther)
		}
		byJoint, ok := w.loads[pattern]
		if !ok {
			byJoint = make(map[string]NodalForce)
			w.loads[pattern] = byJoint
		}
		joint := t.cell(row, "Joint")
		byJoint[joint] = NodalForce{
			Joint:       joint,
			LoadPattern: pattern,
			Value:       v,
			Replace:     true,
			CoordSystem: t.cell(row, "CoordSys"),
		}
	}
	return nil
}

// Save writes pattern, case and joint load tables and then the file.
func (w *Workbook) Save(ctx context.Context) error {
	if err := w.Memory.Save(ctx); err != nil {
		return err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	writers := []func() error{w.savePatterns, w.saveCases, w.saveStaticAssigns, w.saveJointForces}
	for _, fn := range writers {
		if err := fn(); err != nil {
			return Wrap("save", err)
		}
	}

	if w.output != "" && w.output != w.path {
		return Wrap("save", w.file.SaveAs(w.output))
	}
	return Wrap("save", w.file.Save())
}

func (w *Workbook) savePatterns() error {
	rows := make([][]any, 0, len(w.patternOrder))
	for _, name := range w.patternOrder {
		rows = append(rows, []any{name, w.patterns[name].String(), 0})
	}
	return writeTable(w.file, sheetPatternDefs,
		[]string{"LoadPat", "DesignType", "SelfWtMult"},
		[]string{"", "", "Unitless"}, rows)
}

func (w *Workbook) saveCases() error {
	rows := make([][]any, 0, len(w.caseOrder))
	for _, name := range w.caseOrder {
		rows = append(rows, []any{name, w.cases[name].Type})
	}
	return writeTable(w.file, sheetCaseDefs,
		[]string{"Case", "Type"},
		[]string{"", ""}, rows)
}

func (w *Workbook) saveStaticAssigns() error {
	var rows [][]any
	for _, name := range w.caseOrder {
		for _, l := range w.cases[name].Loads {
			rows = append(rows, []any{name, l.Type, l.Name, l.Scale})
		}
	}
	return writeTable(w.file, sheetStaticAssigns,
		[]string{"Case", "LoadType", "LoadName", "LoadSF"},
		[]string{"", "", "", "Unitless"}, rows)
}

func (w *Workbook) saveJointForces() error {
	var rows [][]any
	for _, pattern := range w.patternOrder {
		byJoint := w.loads[pattern]
		joints := make([]string, 0, len(byJoint))
		for j := range byJoint {
			joints = append(joints, j)
		}
		seismic.SortNodes(joints)
		for _, joint := range joints {
			f := byJoint[joint]
			row := []any{joint, pattern, f.CoordSystem}
			for _, v := range f.Value {
				row = append(row, v)
			}
			rows = append(rows, row)
		}
	}
	return writeTable(w.file, sheetJointForces,
		[]string{"Joint", "LoadPat", "CoordSys", "F1", "F2", "F3", "M1", "M2", "M3"},
		[]string{"", "", "", w.units.String(), "", "", "", "", ""}, rows)
}

// Close releases the workbook. Unsaved changes are lost.
func (w *Workbook) Close() error {
	_ = w.Memory.Close()
	return w.file.Close()
}
