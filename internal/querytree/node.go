package querytree

// Kind distinguishes scalar fields from relation fields.
type Kind int

const (
	// Leaf is a field requested without a selection set.
	Leaf Kind = iota
	// Relation is a field requested with a non-empty selection set.
	Relation
)

func (k Kind) String() string {
	if k == Relation {
		return "relation"
	}
	return "leaf"
}

// Node is one requested field in a selection tree.
// A node exclusively owns its children; the tree has no back-references.
type Node struct {
	Name       string
	Kind       Kind
	Properties *Properties
	Children   []*Node
}

// NewLeaf creates a leaf node.
func NewLeaf(name string, props *Properties) *Node {
	return &Node{Name: name, Kind: Leaf, Properties: props}
}

// NewRelation creates a relation node with the given children.
func NewRelation(name string, props *Properties, children ...*Node) *Node {
	return &Node{Name: name, Kind: Relation, Properties: props, Children: children}
}

// SetChildren replaces the node's children. Only used while building.
func (n *Node) SetChildren(children []*Node) {
	n.Children = children
}

// SetProperties replaces the node's properties. Only used while building.
func (n *Node) SetProperties(props *Properties) {
	n.Properties = props
}

// IsRelation reports whether the node was requested with a selection set.
func (n *Node) IsRelation() bool {
	return n.Kind == Relation
}

// Field returns the first child with the given name, or nil.
func (n *Node) Field(name string) *Node {
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// ToObject renders the subtree as a printable map.
//
// Every node becomes an object holding "__args", "__options" and "__type",
// plus one entry per child keyed by the child's name. The result can be
// passed to ir.MarshalCanonical.
func (n *Node) ToObject() map[string]any {
	obj := map[string]any{}

	args := map[string]any{}
	order := map[string]any{}
	if n.Properties != nil {
		for k, v := range n.Properties.Args {
			args[k] = v
		}
		for k, d := range n.Properties.Options.Order {
			order[k] = string(d)
		}
	}
	obj["__args"] = args
	obj["__options"] = map[string]any{"order": order}
	obj["__type"] = n.Properties.TypeName()

	for _, child := range n.Children {
		obj[child.Name] = child.ToObject()
	}
	return obj
}
