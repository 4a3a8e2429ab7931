// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// TextNode names the character-data children a decoder inserts to keep
// mixed content in document order.
const TextNode = "#text"

// RawRecord is a generic element tree for one source record. The fetch stage
// decodes each article into this shape without assuming a schema, so every
// sub-structure may be missing. Lookups on a nil *RawRecord are valid and
// return zero values.
//
// Text holds the element's direct character data. Decoders also append that
// data as TextNode children so InnerText can interleave it with inline markup.
type RawRecord struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*RawRecord
}

// NewRawRecord builds a node with the given children.
func NewRawRecord(name, text string, children ...*RawRecord) *RawRecord {
	return &RawRecord{Name: name, Text: text, Children: children}
}

// Child returns the first direct child named name, or nil.
func (r *RawRecord) Child(name string) *RawRecord {
	if r == nil {
		return nil
	}
	for _, c := range r.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find walks path one child at a time, taking the first match at each step.
func (r *RawRecord) Find(path ...string) *RawRecord {
	node := r
	for _, name := range path {
		node = node.Child(name)
		if node == nil {
			return nil
		}
	}
	return node
}

// FindAll returns every node matching the last path element under the node
// reached by the leading elements.
func (r *RawRecord) FindAll(path ...string) []*RawRecord {
	if len(path) == 0 || r == nil {
		return nil
	}
	parent := r.Find(path[:len(path)-1]...)
	if parent == nil {
		return nil
	}
	last := path[len(path)-1]
	var out []*RawRecord
	for _, c := range parent.Children {
		if c.Name == last {
			out = append(out, c)
		}
	}
	return out
}

// Has reports whether path resolves to a node.
func (r *RawRecord) Has(path ...string) bool {
	return r.Find(path...) != nil
}

// Attr returns the named attribute, or "".
func (r *RawRecord) Attr(name string) string {
	if r == nil {
		return ""
	}
	return r.Attrs[name]
}

// InnerText returns the node's character data including that of nested
// inline elements (e.g. <i>, <sup> inside a title), trimmed.
func (r *RawRecord) InnerText() string {
	return strings.TrimSpace(r.RawText())
}

// RawText is InnerText without trimming.
func (r *RawRecord) RawText() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	r.writeText(&b)
	return b.String()
}

func (r *RawRecord) writeText(b *strings.Builder) {
	if len(r.Children) == 0 {
		b.WriteString(r.Text)
		return
	}
	for _, c := range r.Children {
		if c.Name == TextNode {
			b.WriteString(c.Text)
			continue
		}
		c.writeText(b)
	}
}

// Lookup returns the trimmed inner text at path, or def when the path is
// missing or the text is empty.
func (r *RawRecord) Lookup(def string, path ...string) string {
	if v := r.Find(path...).InnerText(); v != "" {
		return v
	}
	return def
}
