package xpath

import "sort"

// NodeKind identifies the kind of a document tree node. The set of kinds is
// fixed by the XPath 1.0 data model.
type NodeKind int

const (
	// DocumentNode is the root of a document tree.
	DocumentNode NodeKind = iota
	// ElementNode is an element.
	ElementNode
	// AttributeNode is an attribute of an element.
	AttributeNode
	// TextNode is character data.
	TextNode
	// CommentNode is a comment.
	CommentNode
	// ProcInstNode is a processing instruction.
	ProcInstNode
	// NamespaceNode is an in-scope namespace binding of an element.
	NamespaceNode
)

func (k NodeKind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case AttributeNode:
		return "attribute"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case ProcInstNode:
		return "processing-instruction"
	case NamespaceNode:
		return "namespace"
	}
	return "unknown"
}

// Node is the read-only navigation capability the evaluator needs from a
// document tree. Any tree representation can be queried by implementing it;
// this package never mutates a tree through this interface. The xmltree
// subpackage provides a ready-made implementation.
//
// Per node kind the accessors behave as follows: LocalName returns the local
// part of an element or attribute name, the target of a processing
// instruction and the prefix of a namespace node; it is empty for document,
// text and comment nodes. Value returns the character data of a text or
// comment node, the value of an attribute, the content of a processing
// instruction and the URI of a namespace node; it is empty for document and
// element nodes. Parent of an attribute or namespace node is the element
// that carries it; Parent of the document node is nil.
//
// Order is the position of the node in document order: the document node
// first, then depth first with the namespace and attribute nodes of an
// element before its children. Every node of one tree has a distinct Order
// value, stable at least for the lifetime of an evaluation.
type Node interface {
	Kind() NodeKind
	LocalName() string
	Prefix() string
	NamespaceURI() string
	Parent() Node
	Children() []Node
	Attributes() []Node
	NamespaceNodes() []Node
	Value() string
	Order() int
}

// xmlNamespace is the namespace the xml prefix is permanently bound to.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// documentRoot walks to the top of the tree the node belongs to.
func documentRoot(n Node) Node {
	for {
		p := n.Parent()
		if p == nil {
			return n
		}
		n = p
	}
}

// sortAndDedup sorts nodes into document order and eliminates duplicates.
// Since Order is a total order over one tree, equal keys mean equal nodes.
func sortAndDedup(nodes []Node) NodeSet {
	if len(nodes) == 0 {
		return nil
	}
	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	result := sorted[:1]
	for _, n := range sorted[1:] {
		if n.Order() != result[len(result)-1].Order() {
			result = append(result, n)
		}
	}
	return NodeSet(result)
}
