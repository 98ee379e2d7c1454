// Package jobstatus decodes the job service's process status tree and polls
// it until the job finishes.
package jobstatus

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TerminalMarker is the substring that marks a finished process label.
const TerminalMarker = "Finished"

// DefaultMaxDepth bounds tree walks. Deeper trees are never finished.
const DefaultMaxDepth = 1024

// Tree is a process status tree. On the wire it is a leaf string, a
// [label, children] pair where children is an array or null, or a
// [name, status] pair naming a leaf. A null entry in a children array is a
// missing child: it has no label and is never finished.
type Tree struct {
	Name     string // Set for named leaves; Label then holds the status
	Label    string
	Children []*Tree
	node     bool
	missing  bool
}

// Leaf creates a leaf.
func Leaf(label string) *Tree {
	return &Tree{Label: label}
}

// Node creates a node. A nil children slice encodes as null.
func Node(label string, children ...*Tree) *Tree {
	return &Tree{Label: label, Children: children, node: true}
}

// NamedLeaf creates a leaf carrying a name and a status.
func NamedLeaf(name, status string) *Tree {
	return &Tree{Name: name, Label: status}
}

// ParseTree decodes a tree from JSON.
func ParseTree(data []byte) (*Tree, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode status tree: %w", err)
	}
	return FromValue(v)
}

// FromValue converts a decoded JSON value into a tree without recursion.
func FromValue(v any) (*Tree, error) {
	type frame struct {
		value any
		dst   *Tree
	}
	root := &Tree{}
	stack := []frame{{v, root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch t := f.value.(type) {
		case nil:
			f.dst.missing = true
		case string:
			f.dst.Label = t
		case []any:
			if len(t) == 0 || len(t) > 2 {
				return nil, fmt.Errorf("decode status tree: pair has %d elements", len(t))
			}
			label, ok := t[0].(string)
			if !ok {
				return nil, fmt.Errorf("decode status tree: label is %T, not a string", t[0])
			}
			f.dst.Label = label
			f.dst.node = true
			if len(t) == 1 || t[1] == nil {
				continue
			}
			switch c := t[1].(type) {
			case string:
				f.dst.Name, f.dst.Label, f.dst.node = label, c, false
			case []any:
				f.dst.Children = make([]*Tree, len(c))
				for i, cv := range c {
					f.dst.Children[i] = &Tree{}
					stack = append(stack, frame{cv, f.dst.Children[i]})
				}
			default:
				return nil, fmt.Errorf("decode status tree: children of %q are %T", label, c)
			}
		default:
			return nil, fmt.Errorf("decode status tree: unexpected %T", f.value)
		}
	}
	return root, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tree) UnmarshalJSON(data []byte) error {
	parsed, err := ParseTree(data)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value())
}

func (t *Tree) value() any {
	switch {
	case t.missing:
		return nil
	case t.Name != "":
		return []any{t.Name, t.Label}
	case !t.node:
		return t.Label
	case t.Children == nil:
		return []any{t.Label, nil}
	}
	children := make([]any, len(t.Children))
	for i, c := range t.Children {
		children[i] = c.value()
	}
	return []any{t.Label, children}
}

// IsLeaf reports whether t has no children.
func (t *Tree) IsLeaf() bool {
	return len(t.Children) == 0
}

// IsFinished reports whether every label in the tree carries the terminal
// marker. A node is finished only if its own label is and, when it has
// children, every child is. Trees deeper than maxDepth (DefaultMaxDepth when
// zero or negative) are not finished.
func IsFinished(t *Tree, maxDepth int) bool {
	if t == nil {
		return false
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	type frame struct {
		tree  *Tree
		depth int
	}
	stack := []frame{{t, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.tree == nil || f.depth > maxDepth {
			return false
		}
		if !strings.Contains(f.tree.Label, TerminalMarker) {
			return false
		}
		for _, c := range f.tree.Children {
			stack = append(stack, frame{c, f.depth + 1})
		}
	}
	return true
}

// Lines renders the tree one label per line, indented two spaces per level.
func (t *Tree) Lines() []string {
	if t == nil {
		return nil
	}
	type frame struct {
		tree  *Tree
		depth int
	}
	var lines []string
	stack := []frame{{t, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.tree == nil || f.tree.missing {
			continue
		}
		text := f.tree.Label
		if f.tree.Name != "" {
			text = f.tree.Name + ": " + f.tree.Label
		}
		lines = append(lines, strings.Repeat("  ", f.depth)+text)
		for i := len(f.tree.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.tree.Children[i], f.depth + 1})
		}
	}
	return lines
}

// String renders the tree as newline-separated lines.
func (t *Tree) String() string {
	return strings.Join(t.Lines(), "\n")
}
