// Package guesttest provides a mounted sample page for tests.
//
// The page is a home page with a title, a hero image, a node-selector of
// embedded features (sections, min 1 max 3), a node-selector of shared
// features (gallery, max 2) and a repeat group of links (min 1).
package guesttest

import (
	_ "embed"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/iceguest/internal/guest/model"
	"github.com/zjrosen/iceguest/internal/guest/page"
)

//go:embed sample_page.yaml
var samplePage []byte

// SamplePageYAML returns the fixture the sample page is built from.
func SamplePageYAML() []byte {
	return append([]byte(nil), samplePage...)
}

// Paths of the sample content.
const (
	PagePath    = "/site/website/index.xml"
	SharedPath  = "/site/components/feat-3.xml"
	FeatureType = "/component/feature"
	HeroType    = "/component/hero"
)

// SamplePage mounts a fresh copy of the sample page.
func SamplePage(t testing.TB) *page.Page {
	t.Helper()
	f, err := page.Parse(samplePage)
	require.NoError(t, err)
	p, err := page.Build(f)
	require.NoError(t, err)
	return p
}

// ICE returns the ICE id registered for props, failing the test if absent.
func ICE(t testing.TB, p *page.Page, modelID, fieldID string, index model.ItemIndex) int {
	t.Helper()
	id, ok := p.ICEID(model.ICEProps{ModelID: modelID, FieldID: fieldID, Index: index})
	require.True(t, ok, "no ice record for %s/%s/%s", modelID, fieldID, index)
	return id
}

// Element returns the element record id of a named element.
func Element(t testing.TB, p *page.Page, name string) int {
	t.Helper()
	id, ok := p.Element(name)
	require.True(t, ok, "no element named %q", name)
	return id
}

// Node returns the node of a named element.
func Node(t testing.TB, p *page.Page, name string) model.NodeID {
	t.Helper()
	n, ok := p.Node(name)
	require.True(t, ok, "no node named %q", name)
	return n
}
