package xpath

// axisNodes returns the candidate nodes along the axis for one context node,
// not yet narrowed by a node test. Forward axes enumerate in document order,
// reverse axes (parent, ancestor, ancestor-or-self, preceding,
// preceding-sibling) in reverse document order; predicate numbering on the
// step follows that enumeration order. The attribute and namespace axes are
// empty for non-element context nodes.
func axisNodes(a Axis, n Node) ([]Node, error) {
	switch a {
	case Self:
		return []Node{n}, nil
	case Child:
		return n.Children(), nil
	case Attribute:
		if n.Kind() != ElementNode {
			return nil, nil
		}
		return n.Attributes(), nil
	case Namespace:
		if n.Kind() != ElementNode {
			return nil, nil
		}
		return n.NamespaceNodes(), nil
	case Parent:
		if p := n.Parent(); p != nil {
			return []Node{p}, nil
		}
		return nil, nil
	case Ancestor:
		return appendAncestors(nil, n), nil
	case AncestorOrSelf:
		return appendAncestors([]Node{n}, n), nil
	case Descendant:
		return appendDescendants(nil, n), nil
	case DescendantOrSelf:
		return appendDescendants([]Node{n}, n), nil
	case FollowingSibling:
		return siblingsAfter(n), nil
	case PrecedingSibling:
		return siblingsBefore(n), nil
	case Following:
		return followingNodes(n), nil
	case Preceding:
		return precedingNodes(n), nil
	}
	return nil, ErrUnsupportedAxis.New(int(a))
}

func appendAncestors(seq []Node, n Node) []Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		seq = append(seq, p)
	}
	return seq
}

func appendDescendants(seq []Node, n Node) []Node {
	for _, c := range n.Children() {
		seq = append(seq, c)
		seq = appendDescendants(seq, c)
	}
	return seq
}

// appendSubtreeReverse appends the node and all its descendants in reverse
// document order, so the node itself comes last.
func appendSubtreeReverse(seq []Node, n Node) []Node {
	children := n.Children()
	for i := len(children) - 1; i >= 0; i-- {
		seq = appendSubtreeReverse(seq, children[i])
	}
	return append(seq, n)
}

// siblingsAfter returns the following siblings in document order. Attribute
// and namespace nodes have no siblings.
func siblingsAfter(n Node) []Node {
	if n.Kind() == AttributeNode || n.Kind() == NamespaceNode {
		return nil
	}
	p := n.Parent()
	if p == nil {
		return nil
	}
	children := p.Children()
	for i, c := range children {
		if c.Order() == n.Order() {
			return children[i+1:]
		}
	}
	return nil
}

// siblingsBefore returns the preceding siblings, nearest first.
func siblingsBefore(n Node) []Node {
	if n.Kind() == AttributeNode || n.Kind() == NamespaceNode {
		return nil
	}
	p := n.Parent()
	if p == nil {
		return nil
	}
	children := p.Children()
	for i, c := range children {
		if c.Order() == n.Order() {
			seq := make([]Node, 0, i)
			for j := i - 1; j >= 0; j-- {
				seq = append(seq, children[j])
			}
			return seq
		}
	}
	return nil
}

// followingNodes returns every node after the context node in document
// order, excluding its own descendants. For an attribute or namespace node
// the owning element's subtree comes first: those nodes follow it in
// document order without being its descendants.
func followingNodes(n Node) []Node {
	var seq []Node
	start := n
	if n.Kind() == AttributeNode || n.Kind() == NamespaceNode {
		owner := n.Parent()
		if owner == nil {
			return nil
		}
		seq = appendDescendants(seq, owner)
		start = owner
	}
	for cur := start; cur != nil; cur = cur.Parent() {
		for _, sib := range siblingsAfter(cur) {
			seq = append(seq, sib)
			seq = appendDescendants(seq, sib)
		}
	}
	return seq
}

// precedingNodes returns every node before the context node in reverse
// document order, excluding its ancestors.
func precedingNodes(n Node) []Node {
	start := n
	if n.Kind() == AttributeNode || n.Kind() == NamespaceNode {
		start = n.Parent()
		if start == nil {
			return nil
		}
	}
	var seq []Node
	for cur := start; cur != nil; cur = cur.Parent() {
		for _, sib := range siblingsBefore(cur) {
			seq = appendSubtreeReverse(seq, sib)
		}
	}
	return seq
}

// matchNodeTest reports whether the node passes the node test of a step
// along the given axis. Name test prefixes resolve against the bindings
// passed to the evaluator, never against global state.
func matchNodeTest(test NodeTest, axis Axis, n Node, namespaces map[string]string) (bool, error) {
	switch t := test.(type) {
	case NodeTypeTest:
		switch t {
		case TestNode:
			return true, nil
		case TestText:
			return n.Kind() == TextNode, nil
		case TestComment:
			return n.Kind() == CommentNode, nil
		}
		return false, nil
	case PITest:
		if n.Kind() != ProcInstNode {
			return false, nil
		}
		return t == "" || n.LocalName() == string(t), nil
	case *NameTest:
		if n.Kind() != axis.principalKind() {
			return false, nil
		}
		uri := ""
		if t.Prefix != "" {
			u, ok := namespaces[t.Prefix]
			if !ok {
				if t.Prefix != "xml" {
					return false, ErrUnknownPrefix.New(t.Prefix)
				}
				u = xmlNamespace
			}
			uri = u
		}
		if t.Local == "*" {
			return t.Prefix == "" || n.NamespaceURI() == uri, nil
		}
		return n.LocalName() == t.Local && n.NamespaceURI() == uri, nil
	}
	return false, nil
}
