package querytree

// Arg is one resolved argument of a requested field.
type Arg struct {
	Name  string
	Value any
}

// Classify splits raw arguments into entity-field arguments and option
// arguments. An argument is an entity-field argument when its name is one
// of fieldNames. Relative order is preserved in both results and the two
// results are disjoint.
func Classify(fieldNames map[string]struct{}, raw []Arg) (fields []Arg, options []Arg) {
	for _, arg := range raw {
		if _, ok := fieldNames[arg.Name]; ok {
			fields = append(fields, arg)
		} else {
			options = append(options, arg)
		}
	}
	return fields, options
}
