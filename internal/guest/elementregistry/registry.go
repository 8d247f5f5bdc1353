// Package elementregistry maps rendered nodes to the ICE records they
// represent and derives the geometry the editing state machine works with:
// hover boxes, sibling rectangles and compiled drop zones.
package elementregistry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zjrosen/iceguest/internal/guest/dom"
	"github.com/zjrosen/iceguest/internal/guest/iceregistry"
	"github.com/zjrosen/iceguest/internal/guest/model"
)

var (
	// ErrUnknownNode is returned when registering a node absent from the document.
	ErrUnknownNode = errors.New("unknown node")
	// ErrNoICEIDs is returned when registering a node without ICE ids.
	ErrNoICEIDs = errors.New("element has no ice ids")
)

// Registry owns the element records of one document.
type Registry struct {
	mu      sync.RWMutex
	doc     *dom.Document
	nextID  int
	records map[int]model.ElementRecord
	byNode  map[model.NodeID]int
}

// New creates a registry over doc.
func New(doc *dom.Document) *Registry {
	return &Registry{
		doc:     doc,
		records: make(map[int]model.ElementRecord),
		byNode:  make(map[model.NodeID]int),
	}
}

// Document returns the document the registry indexes.
func (r *Registry) Document() *dom.Document {
	return r.doc
}

// Register records that node renders the given ICE ids. A node registered
// twice keeps its id and takes the new ICE ids and label.
func (r *Registry) Register(node model.NodeID, iceIDs []int, label string) (int, error) {
	if _, ok := r.doc.Node(node); !ok {
		return 0, fmt.Errorf("register element %d: %w", node, ErrUnknownNode)
	}
	if len(iceIDs) == 0 {
		return 0, fmt.Errorf("register element %d: %w", node, ErrNoICEIDs)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := model.ElementRecord{Element: node, ICEIDs: slices.Clone(iceIDs), Label: label}
	if id, ok := r.byNode[node]; ok {
		rec.ID = id
	} else {
		r.nextID++
		rec.ID = r.nextID
	}
	r.records[rec.ID] = rec
	r.byNode[node] = rec.ID
	return rec.ID, nil
}

// Deregister removes an element record. Unknown ids are ignored.
func (r *Registry) Deregister(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return
	}
	delete(r.records, id)
	delete(r.byNode, rec.Element)
}

// Len returns the number of element records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Read acquires a consistent read view paired with a read view of the ICE
// registry. The returned function releases the element registry lock only.
func (r *Registry) Read(ice *iceregistry.Reader) (*Reader, func()) {
	r.mu.RLock()
	return &Reader{r: r, ice: ice}, r.mu.RUnlock
}

func (r *Registry) sortedIDs() []int {
	ids := make([]int, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
