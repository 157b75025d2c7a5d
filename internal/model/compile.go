package model

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Spec is a compiled pair of models with the data observed under them.
type Spec struct {
	Target   *Plate
	Proposal *Plate
	Data     *Data
}

// CompileError is a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadDir loads every CUE file of the package in dir and compiles its
// target, proposal and data fields.
func LoadDir(dir string) (*Spec, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &CompileError{Field: "load", Message: err.Error()}
	}
	if !info.IsDir() {
		return nil, &CompileError{Field: "load", Message: fmt.Sprintf("not a directory: %s", dir)}
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, &CompileError{Field: "load", Message: err.Error()}
	}
	if len(files) == 0 {
		return nil, &CompileError{Field: "load", Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &CompileError{Field: "load", Message: "no CUE instances loaded"}
	}
	if err := instances[0].Err; err != nil {
		return nil, formatCUEError(err)
	}
	return CompileSpec(cuecontext.New().BuildInstance(instances[0]))
}

// CompileString compiles CUE source holding target, proposal and data
// fields. filename is used in error positions.
func CompileString(src, filename string) (*Spec, error) {
	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	return CompileSpec(v)
}

// CompileSpec compiles the target, proposal and data fields of v. target
// and proposal are required; data may be omitted.
func CompileSpec(v cue.Value) (*Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &Spec{}
	for _, side := range []struct {
		field string
		dst   **Plate
	}{
		{"target", &spec.Target},
		{"proposal", &spec.Proposal},
	} {
		sv := v.LookupPath(cue.ParsePath(side.field))
		if !sv.Exists() {
			return nil, &CompileError{Field: side.field, Message: side.field + " is required", Pos: v.Pos()}
		}
		pv := sv.LookupPath(cue.ParsePath("plate"))
		if !pv.Exists() {
			return nil, &CompileError{Field: side.field, Message: "model root must be a plate", Pos: sv.Pos()}
		}
		p, err := CompilePlate(pv)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", side.field, err)
		}
		*side.dst = p
	}

	dv := v.LookupPath(cue.ParsePath("data"))
	if !dv.Exists() {
		spec.Data = &Data{}
		return spec, nil
	}
	d, err := CompileData(dv)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	spec.Data = d
	return spec, nil
}

// CompilePlate compiles a plate body: a struct whose fields each hold
// exactly one of dist, group or plate.
func CompilePlate(v cue.Value) (*Plate, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	entries := map[string]Entry{}
	for iter.Next() {
		e, err := compileEntry(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		entries[iter.Label()] = e
	}
	p, err := NewPlate(entries)
	if err != nil {
		return nil, &CompileError{Field: "plate", Message: err.Error(), Pos: v.Pos()}
	}
	return p, nil
}

func compileEntry(name string, v cue.Value) (Entry, error) {
	var found []string
	for _, f := range []string{"dist", "group", "plate"} {
		if v.LookupPath(cue.ParsePath(f)).Exists() {
			found = append(found, f)
		}
	}
	if len(found) != 1 {
		return Entry{}, &CompileError{
			Field:   name,
			Message: fmt.Sprintf("entry must hold exactly one of dist, group or plate, found %v", found),
			Pos:     v.Pos(),
		}
	}

	body := v.LookupPath(cue.ParsePath(found[0]))
	switch found[0] {
	case "dist":
		d, err := compileDist(name, body)
		if err != nil {
			return Entry{}, err
		}
		return DistEntry(d), nil

	case "group":
		iter, err := body.Fields()
		if err != nil {
			return Entry{}, formatCUEError(err)
		}
		members := map[string]Dist{}
		for iter.Next() {
			d, err := compileDist(name+"."+iter.Label(), iter.Value())
			if err != nil {
				return Entry{}, err
			}
			members[iter.Label()] = d
		}
		g, err := NewGroup(members)
		if err != nil {
			return Entry{}, &CompileError{Field: name, Message: err.Error(), Pos: body.Pos()}
		}
		return GroupEntry(g), nil

	default:
		p, err := CompilePlate(body)
		if err != nil {
			return Entry{}, err
		}
		return PlateEntry(p), nil
	}
}

func compileDist(name string, v cue.Value) (Dist, error) {
	var d Dist
	sv := v.LookupPath(cue.ParsePath("support"))
	if !sv.Exists() {
		return d, &CompileError{Field: name, Message: "support is required", Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return d, formatCUEError(err)
	}
	d.Support = Support(s)

	if fv := v.LookupPath(cue.ParsePath("family")); fv.Exists() {
		f, err := fv.String()
		if err != nil {
			return d, formatCUEError(err)
		}
		d.Family = f
	}
	return d, nil
}

// CompileData compiles a data struct. Struct-valued fields are nested data
// plates; any other field marks its name as observed.
func CompileData(v cue.Value) (*Data, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var observed []string
	plates := map[string]*Data{}
	for iter.Next() {
		if iter.Value().IncompleteKind() != cue.StructKind {
			observed = append(observed, iter.Label())
			continue
		}
		sub, err := CompileData(iter.Value())
		if err != nil {
			return nil, err
		}
		plates[iter.Label()] = sub
	}
	d, err := NewData(observed, plates)
	if err != nil {
		return nil, &CompileError{Field: "data", Message: err.Error(), Pos: v.Pos()}
	}
	return d, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
