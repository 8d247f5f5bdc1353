// Package page builds a rendered preview page (document, ICE records and
// element records) from a declarative YAML fixture. It stands in for the
// mount lifecycle of a real preview.
package page

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/iceguest/internal/guest/dom"
	"github.com/zjrosen/iceguest/internal/guest/elementregistry"
	"github.com/zjrosen/iceguest/internal/guest/iceregistry"
	"github.com/zjrosen/iceguest/internal/guest/model"
)

// ErrDuplicateName is returned when two elements of a fixture share a name.
var ErrDuplicateName = errors.New("duplicate element name")

// Viewport is the size of the preview window.
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ElementSpec declares one rendered node. Nodes with ICE props are registered
// as element records.
type ElementSpec struct {
	Name     string           `yaml:"name"`
	Tag      string           `yaml:"tag"`
	Rect     model.Rect       `yaml:"rect"`
	Label    string           `yaml:"label,omitempty"`
	ICE      []model.ICEProps `yaml:"ice,omitempty"`
	Children []ElementSpec    `yaml:"children,omitempty"`
}

// Fixture is the YAML description of a page.
type Fixture struct {
	Viewport     Viewport            `yaml:"viewport"`
	ContentTypes []model.ContentType `yaml:"contentTypes"`
	Models       []model.Model       `yaml:"models"`
	SandboxItems []model.SandboxItem `yaml:"sandboxItems,omitempty"`
	Elements     []ElementSpec       `yaml:"elements"`
}

// Parse decodes a fixture.
func Parse(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse page fixture: %w", err)
	}
	f.SetDefaults()
	return f, nil
}

// SetDefaults fills an unset viewport with 1280x800.
func (f *Fixture) SetDefaults() {
	if f.Viewport.Width == 0 {
		f.Viewport.Width = 1280
	}
	if f.Viewport.Height == 0 {
		f.Viewport.Height = 800
	}
}

// Page is a mounted fixture.
type Page struct {
	Doc          *dom.Document
	ICE          *iceregistry.Registry
	Elements     *elementregistry.Registry
	ContentTypes map[string]model.ContentType
	SandboxItems []model.SandboxItem

	nodes    map[string]model.NodeID
	elements map[string]int
}

// Build mounts the fixture. Content types are loaded into the ICE registry
// here; scripts may still send them again through the host.
func Build(f Fixture) (*Page, error) {
	doc := dom.NewDocument(f.Viewport.Width, pageHeight(f))
	p := &Page{
		Doc:          doc,
		ICE:          iceregistry.New(),
		Elements:     elementregistry.New(doc),
		ContentTypes: make(map[string]model.ContentType, len(f.ContentTypes)),
		SandboxItems: f.SandboxItems,
		nodes:        make(map[string]model.NodeID),
		elements:     make(map[string]int),
	}
	for _, ct := range f.ContentTypes {
		p.ContentTypes[ct.ID] = ct
	}
	p.ICE.SetContentTypes(p.ContentTypes)
	p.ICE.PutModels(f.Models...)

	for _, el := range f.Elements {
		if err := p.mount(doc.Root(), el); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Page) mount(parent model.NodeID, el ElementSpec) error {
	tag := el.Tag
	if tag == "" {
		tag = "div"
	}
	node, err := p.Doc.Append(parent, tag, el.Rect)
	if err != nil {
		return fmt.Errorf("mount %q: %w", el.Name, err)
	}
	if el.Name != "" {
		if _, dup := p.nodes[el.Name]; dup {
			return fmt.Errorf("mount %q: %w", el.Name, ErrDuplicateName)
		}
		p.nodes[el.Name] = node
	}

	if len(el.ICE) > 0 {
		ids := make([]int, 0, len(el.ICE))
		for _, props := range el.ICE {
			id, err := p.ICE.Register(props)
			if err != nil {
				return fmt.Errorf("mount %q: %w", el.Name, err)
			}
			ids = append(ids, id)
		}
		recID, err := p.Elements.Register(node, ids, el.Label)
		if err != nil {
			return fmt.Errorf("mount %q: %w", el.Name, err)
		}
		if el.Name != "" {
			p.elements[el.Name] = recID
		}
	}

	for _, child := range el.Children {
		if err := p.mount(node, child); err != nil {
			return err
		}
	}
	return nil
}

func pageHeight(f Fixture) float64 {
	h := f.Viewport.Height
	var walk func(els []ElementSpec)
	walk = func(els []ElementSpec) {
		for _, el := range els {
			if b := el.Rect.Bottom(); b > h {
				h = b
			}
			walk(el.Children)
		}
	}
	walk(f.Elements)
	return h
}

// Node returns the node mounted for a named element.
func (p *Page) Node(name string) (model.NodeID, bool) {
	n, ok := p.nodes[name]
	return n, ok
}

// Element returns the element record id of a named element.
func (p *Page) Element(name string) (int, bool) {
	id, ok := p.elements[name]
	return id, ok
}

// ElementNames returns the names of registered elements.
func (p *Page) ElementNames() map[string]int {
	out := make(map[string]int, len(p.elements))
	for k, v := range p.elements {
		out[k] = v
	}
	return out
}

// ICEID returns the id registered for props.
func (p *Page) ICEID(props model.ICEProps) (int, bool) {
	rd, release := p.ICE.Read()
	defer release()
	return rd.Exists(props)
}
