// Package xmlpath parses XML payloads into mutable trees, locates nodes by
// XPath or by dotted element-name paths and serializes the tree back.
package xmlpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// ErrNoRootElement is returned for payloads that parse but hold no element.
var ErrNoRootElement = errors.New("document has no root element")

// IsXPath reports whether a path expression is XPath rather than a dotted
// element-name path.
func IsXPath(expression string) bool {
	return strings.ContainsAny(expression, "/(")
}

// Document is a parsed XML payload.
type Document struct {
	doc  *xmlquery.Node
	root *xmlquery.Node
	// declared is false when the payload had no XML declaration; the
	// parser adds one in that case and String leaves it out.
	declared bool
}

// Parse parses payload into a Document.
func Parse(payload string) (*Document, error) {
	doc, err := xmlquery.Parse(strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML payload: %w", err)
	}

	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return &Document{doc: doc, root: n, declared: hasDeclaration(payload)}, nil
		}
	}
	return nil, ErrNoRootElement
}

func hasDeclaration(payload string) bool {
	s := strings.TrimLeft(strings.TrimPrefix(payload, "\ufeff"), " \t\r\n")
	if !strings.HasPrefix(s, "<?xml") || len(s) == len("<?xml") {
		return false
	}
	switch s[len("<?xml")] {
	case ' ', '\t', '\r', '\n', '?':
		return true
	}
	return false
}

// RootName returns the local name of the root element.
func (d *Document) RootName() string {
	return d.root.Data
}

// Evaluate evaluates an XPath expression and returns its string value.
// Node sets yield the string value of their first node, or "" when empty.
func (d *Document) Evaluate(expression string) (string, error) {
	expr, err := xpath.Compile(expression)
	if err != nil {
		return "", fmt.Errorf("invalid XPath expression %q: %w", expression, err)
	}

	switch v := expr.Evaluate(xmlquery.CreateXPathNavigator(d.doc)).(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case *xpath.NodeIterator:
		if v.MoveNext() {
			return v.Current().Value(), nil
		}
		return "", nil
	default:
		return fmt.Sprint(v), nil
	}
}

// Find locates the node addressed by expression, which is either XPath or
// an element-name path. The boolean is false when nothing matches.
func (d *Document) Find(expression string) (Node, bool, error) {
	if IsXPath(expression) {
		return d.findXPath(expression)
	}
	n, ok := d.findByName(expression)
	return n, ok, nil
}

func (d *Document) findXPath(expression string) (Node, bool, error) {
	expr, err := xpath.Compile(expression)
	if err != nil {
		return Node{}, false, fmt.Errorf("invalid XPath expression %q: %w", expression, err)
	}

	iter, ok := expr.Evaluate(xmlquery.CreateXPathNavigator(d.doc)).(*xpath.NodeIterator)
	if !ok {
		return Node{}, false, fmt.Errorf("XPath expression %q does not select nodes", expression)
	}
	if !iter.MoveNext() {
		return Node{}, false, nil
	}

	nav, ok := iter.Current().(*xmlquery.NodeNavigator)
	if !ok {
		return Node{}, false, fmt.Errorf("unexpected navigator %T", iter.Current())
	}

	if nav.NodeType() == xpath.AttributeNode {
		name := qualifiedName(nav.Prefix(), nav.LocalName())
		nav.MoveToParent()
		return Node{node: nav.Current(), attr: name}, true, nil
	}
	return Node{node: nav.Current()}, true, nil
}

// findByName resolves a dotted path such as "TestMessage.Header.Id". The
// first segment names the root element and every following segment a child
// of the previous one. When no child carries the last name, it is taken as
// an attribute of the element addressed by the rest of the path.
func (d *Document) findByName(path string) (Node, bool) {
	segments := strings.Split(path, ".")
	if segments[0] != d.root.Data {
		return Node{}, false
	}
	return descend(d.root, segments[1:])
}

func descend(n *xmlquery.Node, segments []string) (Node, bool) {
	if len(segments) == 0 {
		return Node{node: n}, true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode || c.Data != segments[0] {
			continue
		}
		if found, ok := descend(c, segments[1:]); ok {
			return found, true
		}
	}
	if len(segments) == 1 {
		for _, a := range n.Attr {
			name := qualifiedName(a.Name.Space, a.Name.Local)
			if a.Name.Local == segments[0] || name == segments[0] {
				return Node{node: n, attr: name}, true
			}
		}
	}
	return Node{}, false
}

func qualifiedName(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// Node is a located element, text or attribute node.
type Node struct {
	node *xmlquery.Node
	attr string
}

// IsAttribute reports whether the node is an attribute.
func (n Node) IsAttribute() bool {
	return n.attr != ""
}

// Name returns the element or attribute name.
func (n Node) Name() string {
	if n.IsAttribute() {
		return n.attr
	}
	return qualifiedName(n.node.Prefix, n.node.Data)
}

// Value returns the node value. An element yields the value of its first
// child when that child is text, otherwise "".
func (n Node) Value() string {
	if n.IsAttribute() {
		for _, a := range n.node.Attr {
			if qualifiedName(a.Name.Space, a.Name.Local) == n.attr {
				return a.Value
			}
		}
		return ""
	}

	switch n.node.Type {
	case xmlquery.ElementNode:
		if c := n.node.FirstChild; c != nil && isText(c) {
			return c.Data
		}
		return ""
	default:
		return n.node.Data
	}
}

// SetValue overwrites the node value. An element gets the text of its first
// text child replaced, or a new text child when it has none.
func (n Node) SetValue(value string) {
	if n.IsAttribute() {
		for i, a := range n.node.Attr {
			if qualifiedName(a.Name.Space, a.Name.Local) == n.attr {
				n.node.Attr[i].Value = value
				return
			}
		}
		return
	}

	if n.node.Type != xmlquery.ElementNode {
		n.node.Data = value
		return
	}

	first := n.node.FirstChild
	if first != nil && isText(first) {
		first.Data = value
		return
	}

	text := &xmlquery.Node{Type: xmlquery.TextNode, Data: value, Parent: n.node}
	if first == nil {
		n.node.FirstChild = text
		n.node.LastChild = text
		return
	}
	text.NextSibling = first
	first.PrevSibling = text
	n.node.FirstChild = text
}

func isText(n *xmlquery.Node) bool {
	return n.Type == xmlquery.TextNode || n.Type == xmlquery.CharDataNode
}
