// Package xmltree builds an XPath-queryable document tree from XML input.
// It decodes with encoding/xml, keeps comments, processing instructions and
// whitespace-only text, reconstructs namespace prefixes and materializes the
// namespace nodes each element has in scope. Non-UTF-8 documents are
// transcoded from the encoding named in the XML declaration.
package xmltree

import (
	"encoding/xml"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/johnstonskj/go-xpath"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// node carries what every tree node has: a parent and a document order key.
// The accessors it provides are the defaults for node kinds where they are
// empty.
type node struct {
	parent xpath.Node
	order  int
}

func (n *node) Parent() xpath.Node { return n.parent }
func (n *node) Order() int         { return n.order }
func (n *node) setOrder(i int)     { n.order = i }
func (n *node) LocalName() string            { return "" }
func (n *node) Prefix() string               { return "" }
func (n *node) NamespaceURI() string         { return "" }
func (n *node) Children() []xpath.Node       { return nil }
func (n *node) Attributes() []xpath.Node     { return nil }
func (n *node) NamespaceNodes() []xpath.Node { return nil }
func (n *node) Value() string                { return "" }

// Document is the root of a parsed tree.
type Document struct {
	node
	children []xpath.Node
}

func (d *Document) Kind() xpath.NodeKind   { return xpath.DocumentNode }
func (d *Document) Children() []xpath.Node { return d.children }

// Root returns the document element, or nil for a document with none.
func (d *Document) Root() *Element {
	for _, c := range d.children {
		if el, ok := c.(*Element); ok {
			return el
		}
	}
	return nil
}

// Element is an element node.
type Element struct {
	node
	local    string
	prefix   string
	uri      string
	attrs    []xpath.Node
	nsNodes  []xpath.Node
	children []xpath.Node
}

func (e *Element) Kind() xpath.NodeKind         { return xpath.ElementNode }
func (e *Element) LocalName() string            { return e.local }
func (e *Element) Prefix() string               { return e.prefix }
func (e *Element) NamespaceURI() string         { return e.uri }
func (e *Element) Children() []xpath.Node       { return e.children }
func (e *Element) Attributes() []xpath.Node     { return e.attrs }
func (e *Element) NamespaceNodes() []xpath.Node { return e.nsNodes }

// Attribute is an attribute node. Namespace declarations are not
// attributes, they surface as namespace nodes instead.
type Attribute struct {
	node
	local  string
	prefix string
	uri    string
	value  string
}

func (a *Attribute) Kind() xpath.NodeKind { return xpath.AttributeNode }
func (a *Attribute) LocalName() string    { return a.local }
func (a *Attribute) Prefix() string       { return a.prefix }
func (a *Attribute) NamespaceURI() string { return a.uri }
func (a *Attribute) Value() string        { return a.value }

// Text is character data. Adjacent runs are merged during parsing.
type Text struct {
	node
	data string
}

func (t *Text) Kind() xpath.NodeKind { return xpath.TextNode }
func (t *Text) Value() string        { return t.data }

// Comment is a comment node.
type Comment struct {
	node
	data string
}

func (c *Comment) Kind() xpath.NodeKind { return xpath.CommentNode }
func (c *Comment) Value() string        { return c.data }

// ProcInst is a processing instruction. LocalName is the target, Value the
// instruction content.
type ProcInst struct {
	node
	target string
	inst   string
}

func (p *ProcInst) Kind() xpath.NodeKind { return xpath.ProcInstNode }
func (p *ProcInst) LocalName() string    { return p.target }
func (p *ProcInst) Value() string        { return p.inst }

// Namespace is an in-scope namespace binding of one element. LocalName is
// the prefix, Value the URI. Every element carries its own namespace nodes,
// including the implicit xml binding.
type Namespace struct {
	node
	prefix string
	uri    string
}

func (n *Namespace) Kind() xpath.NodeKind { return xpath.NamespaceNode }
func (n *Namespace) LocalName() string    { return n.prefix }
func (n *Namespace) Value() string        { return n.uri }

// nsScope tracks namespace declarations during parsing. Bindings stack in
// declaration order so the prefix of a resolved URI can be recovered, with
// the most recent unshadowed declaration winning.
type nsScope struct {
	bindings []nsBinding
	marks    []int
}

type nsBinding struct {
	prefix string
	uri    string
}

func (s *nsScope) push(attrs []xml.Attr) {
	s.marks = append(s.marks, len(s.bindings))
	for _, a := range attrs {
		switch {
		case a.Name.Space == "xmlns":
			s.bindings = append(s.bindings, nsBinding{prefix: a.Name.Local, uri: a.Value})
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			s.bindings = append(s.bindings, nsBinding{prefix: "", uri: a.Value})
		}
	}
}

func (s *nsScope) pop() {
	last := len(s.marks) - 1
	s.bindings = s.bindings[:s.marks[last]]
	s.marks = s.marks[:last]
}

// uriFor returns the URI a prefix is currently bound to.
func (s *nsScope) uriFor(prefix string) (string, bool) {
	for i := len(s.bindings) - 1; i >= 0; i-- {
		if s.bindings[i].prefix == prefix {
			return s.bindings[i].uri, s.bindings[i].uri != ""
		}
	}
	if prefix == "xml" {
		return xmlNamespace, true
	}
	return "", false
}

// prefixFor recovers a prefix bound to uri. The default binding only counts
// for elements, attributes need an explicit prefix.
func (s *nsScope) prefixFor(uri string, forAttr bool) string {
	if uri == "" {
		return ""
	}
	if uri == xmlNamespace {
		return "xml"
	}
	for i := len(s.bindings) - 1; i >= 0; i-- {
		b := s.bindings[i]
		if b.uri != uri || (forAttr && b.prefix == "") {
			continue
		}
		if cur, ok := s.uriFor(b.prefix); ok && cur == uri {
			return b.prefix
		}
	}
	return ""
}

// inScope returns the effective bindings, sorted by prefix. A declaration of
// the empty URI undeclares its prefix.
func (s *nsScope) inScope() []nsBinding {
	m := map[string]string{"xml": xmlNamespace}
	for _, b := range s.bindings {
		if b.uri == "" {
			delete(m, b.prefix)
		} else {
			m[b.prefix] = b.uri
		}
	}
	out := make([]nsBinding, 0, len(m))
	for prefix, uri := range m {
		out = append(out, nsBinding{prefix: prefix, uri: uri})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].prefix < out[j].prefix })
	return out
}

// Parse reads an XML document into a tree. The decoder transcodes from the
// declared encoding, so latin-1 and friends work out of the box.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	doc := &Document{}
	scope := &nsScope{}
	var stack []*Element

	parent := func() xpath.Node {
		if len(stack) > 0 {
			return stack[len(stack)-1]
		}
		return doc
	}
	appendChild := func(n xpath.Node) {
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.children = append(top.children, n)
		} else {
			doc.children = append(doc.children, n)
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			scope.push(t.Attr)
			el := &Element{
				node:  node{parent: parent()},
				local: t.Name.Local,
				uri:   resolveSpace(t.Name.Space),
			}
			el.prefix = scope.prefixFor(el.uri, false)
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				attr := &Attribute{
					node:  node{parent: el},
					local: a.Name.Local,
					uri:   resolveSpace(a.Name.Space),
					value: a.Value,
				}
				attr.prefix = scope.prefixFor(attr.uri, true)
				el.attrs = append(el.attrs, attr)
			}
			for _, b := range scope.inScope() {
				el.nsNodes = append(el.nsNodes, &Namespace{
					node:   node{parent: el},
					prefix: b.prefix,
					uri:    b.uri,
				})
			}
			appendChild(el)
			stack = append(stack, el)
		case xml.EndElement:
			scope.pop()
			stack = stack[:len(stack)-1]
		case xml.CharData:
			appendText(parent(), appendChild, string(t))
		case xml.Comment:
			appendChild(&Comment{node: node{parent: parent()}, data: string(t)})
		case xml.ProcInst:
			// the XML declaration is not part of the tree
			if t.Target == "xml" {
				continue
			}
			appendChild(&ProcInst{node: node{parent: parent()}, target: t.Target, inst: string(t.Inst)})
		}
	}
	numberNodes(doc)
	return doc, nil
}

// ParseString parses a document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// resolveSpace maps the namespace the decoder reports to a URI. The decoder
// leaves the xml prefix unresolved.
func resolveSpace(space string) string {
	if space == "xml" {
		return xmlNamespace
	}
	return space
}

// appendText adds character data, merging into a preceding text node so
// entity boundaries never split text.
func appendText(p xpath.Node, appendChild func(xpath.Node), data string) {
	var siblings []xpath.Node
	switch t := p.(type) {
	case *Element:
		siblings = t.children
	case *Document:
		siblings = t.children
	}
	if len(siblings) > 0 {
		if prev, ok := siblings[len(siblings)-1].(*Text); ok {
			prev.data += data
			return
		}
	}
	appendChild(&Text{node: node{parent: p}, data: data})
}

// numberNodes assigns document order: the document first, then depth first
// with the namespace and attribute nodes of an element before its children.
func numberNodes(doc *Document) {
	next := 0
	assign := func(n xpath.Node) {
		n.(interface{ setOrder(int) }).setOrder(next)
		next++
	}
	var walk func(n xpath.Node)
	walk = func(n xpath.Node) {
		assign(n)
		for _, ns := range n.NamespaceNodes() {
			assign(ns)
		}
		for _, attr := range n.Attributes() {
			assign(attr)
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(doc)
}
