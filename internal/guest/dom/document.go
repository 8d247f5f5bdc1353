// Package dom is a minimal model of the rendered preview document: a tree of
// nodes with page-space bounding boxes and a scroll offset. It provides the
// geometry and hit-testing the guest registries need.
package dom

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zjrosen/iceguest/internal/guest/model"
)

// ErrUnknownNode is returned when a node id is not part of the document.
var ErrUnknownNode = errors.New("unknown node")

// Node is a rendered element.
type Node struct {
	ID       model.NodeID
	Tag      string
	Rect     model.Rect // page coordinates
	Parent   model.NodeID
	Children []model.NodeID
}

// Document owns the node tree. It is safe for concurrent use.
type Document struct {
	mu     sync.RWMutex
	nodes  map[model.NodeID]*Node
	root   model.NodeID
	nextID model.NodeID
	scroll model.Coordinates
}

// NewDocument creates a document with a body node covering the given viewport.
func NewDocument(width, height float64) *Document {
	d := &Document{nodes: make(map[model.NodeID]*Node)}
	d.nextID++
	d.root = d.nextID
	d.nodes[d.root] = &Node{ID: d.root, Tag: "body", Rect: model.Rect{Width: width, Height: height}}
	return d
}

// Root returns the body node.
func (d *Document) Root() model.NodeID {
	return d.root
}

// Append adds a child to parent and returns its id.
func (d *Document) Append(parent model.NodeID, tag string, rect model.Rect) (model.NodeID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.nodes[parent]
	if !ok {
		return 0, fmt.Errorf("append to %d: %w", parent, ErrUnknownNode)
	}
	d.nextID++
	n := &Node{ID: d.nextID, Tag: tag, Rect: rect, Parent: parent}
	d.nodes[n.ID] = n
	p.Children = append(p.Children, n.ID)
	return n.ID, nil
}

// Remove detaches a node and its subtree.
func (d *Document) Remove(id model.NodeID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.nodes[id]
	if !ok || id == d.root {
		return fmt.Errorf("remove %d: %w", id, ErrUnknownNode)
	}
	if p, ok := d.nodes[n.Parent]; ok {
		kept := p.Children[:0]
		for _, c := range p.Children {
			if c != id {
				kept = append(kept, c)
			}
		}
		p.Children = kept
	}
	d.removeSubtree(id)
	return nil
}

func (d *Document) removeSubtree(id model.NodeID) {
	n, ok := d.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.Children {
		d.removeSubtree(c)
	}
	delete(d.nodes, id)
}

// Node returns a copy of the node.
func (d *Document) Node(id model.NodeID) (Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, ok := d.nodes[id]
	if !ok {
		return Node{}, false
	}
	cp := *n
	cp.Children = append([]model.NodeID(nil), n.Children...)
	return cp, true
}

// Children returns the child ids of a node in document order.
func (d *Document) Children(id model.NodeID) []model.NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, ok := d.nodes[id]
	if !ok {
		return nil
	}
	return append([]model.NodeID(nil), n.Children...)
}

// Parent returns the parent of a node. The root has no parent.
func (d *Document) Parent(id model.NodeID) (model.NodeID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, ok := d.nodes[id]
	if !ok || n.Parent == 0 {
		return 0, false
	}
	return n.Parent, true
}

// Rect returns the bounding client rect (page rect adjusted by scroll).
func (d *Document) Rect(id model.NodeID) (model.Rect, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, ok := d.nodes[id]
	if !ok {
		return model.Rect{}, false
	}
	return n.Rect.Offset(d.scroll.X, d.scroll.Y), true
}

// SetRect moves or resizes a node (layout change).
func (d *Document) SetRect(id model.NodeID, rect model.Rect) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.nodes[id]
	if !ok {
		return fmt.Errorf("set rect %d: %w", id, ErrUnknownNode)
	}
	n.Rect = rect
	return nil
}

// ScrollTo sets the scroll offset of the viewport.
func (d *Document) ScrollTo(x, y float64) {
	d.mu.Lock()
	d.scroll = model.Coordinates{X: x, Y: y}
	d.mu.Unlock()
}

// Scroll returns the current scroll offset.
func (d *Document) Scroll() model.Coordinates {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scroll
}

// Contains reports whether node is ancestor itself or one of its descendants.
func (d *Document) Contains(ancestor, node model.NodeID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for cur := node; cur != 0; {
		if cur == ancestor {
			return true
		}
		n, ok := d.nodes[cur]
		if !ok {
			return false
		}
		cur = n.Parent
	}
	return false
}

// ElementFromPoint returns the topmost node under the client point. Later
// siblings paint above earlier ones and children above their parents.
func (d *Document) ElementFromPoint(x, y float64) (model.NodeID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	px, py := x+d.scroll.X, y+d.scroll.Y
	root := d.nodes[d.root]
	if root == nil || !root.Rect.Contains(px, py) {
		return 0, false
	}
	return d.hit(root, px, py), true
}

func (d *Document) hit(n *Node, x, y float64) model.NodeID {
	for i := len(n.Children) - 1; i >= 0; i-- {
		c := d.nodes[n.Children[i]]
		if c != nil && c.Rect.Contains(x, y) {
			return d.hit(c, x, y)
		}
	}
	return n.ID
}

// Len returns the number of nodes including the root.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.nodes)
}
