// Package xmlnode provides a small, nil-safe navigator over a parsed XML tree.
//
// Lookups come in two flavours. Required lookups (Child, Text, Attr, AttrInt)
// return an error matching ErrMalformedResponse when the target is missing or
// ambiguous. Optional lookups (Maybe, OptionalText) never fail; a missing node is
// represented by a single shared absent node, so
//
//	root.Maybe("paging", "next").Exists()
//
// distinguishes "present but empty" from "not there at all" by identity.
package xmlnode

import (
	"fmt"
	"iter"
	"strconv"

	"github.com/beevik/etree"
)

// Node wraps an XML element.
type Node struct {
	el *etree.Element
}

// absent is the placeholder returned by Maybe for missing nodes. It wraps no
// element and is compared by pointer, never by value.
var absent = &Node{}

// Absent returns the shared placeholder for a missing node.
func Absent() *Node {
	return absent
}

// Wrap returns a Node for el. A nil element yields the absent node.
func Wrap(el *etree.Element) *Node {
	if el == nil {
		return absent
	}
	return &Node{el: el}
}

// Element exposes the underlying element, or nil for the absent node.
func (n *Node) Element() *etree.Element {
	if !n.Exists() {
		return nil
	}
	return n.el
}

// Exists reports whether n refers to a real element.
func (n *Node) Exists() bool {
	return n != nil && n != absent && n.el != nil
}

func (n *Node) node() *Node {
	if n == nil {
		return absent
	}
	return n
}

// childElements returns the direct children, none for the absent node.
func (n *Node) childElements() []*etree.Element {
	if !n.Exists() {
		return nil
	}
	return n.el.ChildElements()
}

// Tag returns the element name.
func (n *Node) Tag() string {
	if !n.Exists() {
		return ""
	}
	return n.el.Tag
}

// Path returns the absolute path of the element within its document, or an empty
// string for the absent node.
func (n *Node) Path() string {
	if !n.Exists() {
		return ""
	}
	return n.el.GetPath()
}

// Len returns the number of direct child elements.
func (n *Node) Len() int {
	return len(n.childElements())
}

// Child returns the only direct child named name. Zero or several matches are
// both malformed.
func (n *Node) Child(name string) (*Node, error) {
	n = n.node()
	var found *etree.Element
	count := 0
	for _, c := range n.childElements() {
		if c.Tag == name {
			found = c
			count++
		}
	}
	switch count {
	case 0:
		return nil, Malformed(n, fmt.Sprintf("missing required element %q", name), nil)
	case 1:
		return &Node{el: found}, nil
	default:
		return nil, Malformed(n, fmt.Sprintf("expected one %q element, found %d", name, count), nil)
	}
}

// Maybe walks a chain of optional children, taking the first match at each step.
// It returns the absent node as soon as a step is missing.
func (n *Node) Maybe(path ...string) *Node {
	cur := n.node()
	for _, name := range path {
		if !cur.Exists() {
			return absent
		}
		next := cur.first(name)
		if next == nil {
			return absent
		}
		cur = &Node{el: next}
	}
	return cur
}

func (n *Node) first(name string) *etree.Element {
	for _, c := range n.childElements() {
		if c.Tag == name {
			return c
		}
	}
	return nil
}

// Text returns the element's text, failing when there is none.
func (n *Node) Text() (string, error) {
	text, ok := n.OptionalText()
	if !ok {
		return "", Malformed(n.node(), "missing required text", nil)
	}
	return text, nil
}

// OptionalText returns the element's text and whether it had any.
func (n *Node) OptionalText() (string, bool) {
	if !n.Exists() {
		return "", false
	}
	text := n.el.Text()
	return text, text != ""
}

// Attr returns the value of a required attribute.
func (n *Node) Attr(key string) (string, error) {
	n = n.node()
	if !n.Exists() {
		return "", Malformed(n, fmt.Sprintf("missing required attribute %q", key), nil)
	}
	attr := n.el.SelectAttr(key)
	if attr == nil {
		return "", Malformed(n, fmt.Sprintf("missing required attribute %q", key), nil)
	}
	return attr.Value, nil
}

// AttrInt returns a required attribute parsed as a base 10 integer.
func (n *Node) AttrInt(key string) (int64, error) {
	raw, err := n.Attr(key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, Malformed(n.node(), fmt.Sprintf("attribute %q is not an integer", key), err)
	}
	return v, nil
}

// All yields the direct child elements in document order.
func (n *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, c := range n.childElements() {
			if !yield(&Node{el: c}) {
				return
			}
		}
	}
}

// Children returns the direct child elements in document order.
func (n *Node) Children() []*Node {
	children := n.childElements()
	out := make([]*Node, 0, len(children))
	for _, c := range children {
		out = append(out, &Node{el: c})
	}
	return out
}

// String renders the node for log and error messages.
func (n *Node) String() string {
	if !n.Exists() {
		return "<absent>"
	}
	text := n.el.Text()
	if text == "" {
		text = "..."
	}
	return fmt.Sprintf("<%s>%s</%s>", n.el.Tag, text, n.el.Tag)
}
