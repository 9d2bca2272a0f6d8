package catalog

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

// Error codes reported by the loader.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	ErrCodeInvalidEntity   = "E101" // Malformed entity declaration
	ErrCodeInvalidField    = "E102" // Malformed field declaration
	ErrCodeInvalidRelation = "E103" // Malformed relation declaration
	ErrCodeInvalidCatalog  = "E104" // Entities do not form a consistent catalog
)

// LoadError is an error encountered while loading catalog declarations.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads every CUE file of the package in dir and builds a catalog
// from its top-level "entity" struct.
func Load(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("resolving catalog directory: %v", err)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: abs})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	return FromValue(value)
}

// LoadString builds a catalog from CUE source text.
func LoadString(filename, src string) (*Catalog, error) {
	value := cuecontext.New().CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err, ErrCodeBuildFailed)
	}
	return FromValue(value)
}

// FromValue decodes the "entity" struct of a CUE value.
func FromValue(v cue.Value) (*Catalog, error) {
	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeInvalidCatalog, Message: "no entity declarations found", Pos: v.Pos()}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err, ErrCodeInvalidEntity)
	}

	var entities []*Entity
	for iter.Next() {
		e, err := decodeEntity(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	c, err := New(entities...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidCatalog, Message: err.Error(), Pos: entitiesVal.Pos()}
	}
	return c, nil
}

func decodeEntity(name string, v cue.Value) (*Entity, error) {
	e := &Entity{Name: name}

	var err error
	if e.Table, err = requiredString(v, "table", ErrCodeInvalidEntity); err != nil {
		return nil, err
	}
	if e.Primary, err = requiredString(v, "primary", ErrCodeInvalidEntity); err != nil {
		return nil, err
	}
	if pv := v.LookupPath(cue.ParsePath("plural")); pv.Exists() {
		if e.Plural, err = pv.String(); err != nil {
			return nil, formatCUEError(err, ErrCodeInvalidEntity)
		}
	}

	if e.Fields, err = decodeFields(v); err != nil {
		return nil, err
	}
	if e.Relations, err = decodeRelations(v); err != nil {
		return nil, err
	}
	if e.Args.Identify, err = stringList(v, "args.identify"); err != nil {
		return nil, err
	}
	if e.Args.Filter, err = stringList(v, "args.filter"); err != nil {
		return nil, err
	}

	return e, nil
}

// decodeFields accepts either a bare type name or a struct with a type and
// an optional column:
//
//	fields: {postId: "int", title: {type: "string", column: "post_title"}}
func decodeFields(v cue.Value) ([]Field, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &LoadError{Code: ErrCodeInvalidField, Message: "fields are required", Pos: v.Pos()}
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err, ErrCodeInvalidField)
	}

	var fields []Field
	for iter.Next() {
		f := Field{Name: iter.Label()}
		fv := iter.Value()

		if typ, err := fv.String(); err == nil {
			f.Type = FieldType(typ)
		} else {
			typ, err := requiredString(fv, "type", ErrCodeInvalidField)
			if err != nil {
				return nil, err
			}
			f.Type = FieldType(typ)
			if cv := fv.LookupPath(cue.ParsePath("column")); cv.Exists() {
				if f.Column, err = cv.String(); err != nil {
					return nil, formatCUEError(err, ErrCodeInvalidField)
				}
			}
		}

		if err := checkFieldType(f.Type); err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidField, Message: fmt.Sprintf("field %s: %v", f.Name, err), Pos: fv.Pos()}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func decodeRelations(v cue.Value) ([]Relation, error) {
	relsVal := v.LookupPath(cue.ParsePath("relations"))
	if !relsVal.Exists() {
		return nil, nil
	}

	iter, err := relsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err, ErrCodeInvalidRelation)
	}

	var rels []Relation
	for iter.Next() {
		rv := iter.Value()
		r := Relation{Name: iter.Label()}

		if r.Target, err = requiredString(rv, "target", ErrCodeInvalidRelation); err != nil {
			return nil, err
		}
		kind, err := requiredString(rv, "kind", ErrCodeInvalidRelation)
		if err != nil {
			return nil, err
		}
		r.Kind = Cardinality(kind)
		if r.Local, err = requiredString(rv, "local", ErrCodeInvalidRelation); err != nil {
			return nil, err
		}
		if r.Remote, err = requiredString(rv, "remote", ErrCodeInvalidRelation); err != nil {
			return nil, err
		}

		rels = append(rels, r)
	}
	return rels, nil
}

func requiredString(v cue.Value, path, code string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", &LoadError{Code: code, Message: fmt.Sprintf("%s is required", path), Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err, code)
	}
	return s, nil
}

func stringList(v cue.Value, path string) ([]string, error) {
	lv := v.LookupPath(cue.ParsePath(path))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err, ErrCodeInvalidEntity)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err, ErrCodeInvalidEntity)
		}
		out = append(out, s)
	}
	return out, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error, code string) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
