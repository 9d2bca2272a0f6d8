package querytree

import "sort"

// Direction is an ordering direction.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// Option argument names recognized by BuildOptions.
const (
	OptionOrderAscBy  = "orderAscBy"
	OptionOrderDescBy = "orderDescBy"
)

// QueryOptions holds the non-filter directives collected at one tree level.
type QueryOptions struct {
	// Order maps a field name to its ordering direction.
	Order map[string]Direction
}

// OrderKeys returns the ordered field names in lexical order.
// Go maps carry no insertion order; sorting keeps compiled plans deterministic.
func (o QueryOptions) OrderKeys() []string {
	keys := make([]string, 0, len(o.Order))
	for k := range o.Order {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BuildOptions maps option arguments to QueryOptions.
//
// orderAscBy: f sets Order[f] = Ascending and orderDescBy: f sets
// Order[f] = Descending. Arguments are applied in slice order, so when both
// target the same field the later one wins. Any other key, or a value that
// is not a non-empty string, is ignored.
func BuildOptions(args []Arg) QueryOptions {
	opts := QueryOptions{Order: make(map[string]Direction)}

	for _, arg := range args {
		field, ok := arg.Value.(string)
		if !ok || field == "" {
			continue
		}
		switch arg.Name {
		case OptionOrderDescBy:
			opts.Order[field] = Descending
		case OptionOrderAscBy:
			opts.Order[field] = Ascending
		}
	}

	return opts
}
