package page_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/iceguest/internal/guest/guesttest"
	"github.com/zjrosen/iceguest/internal/guest/iceregistry"
	"github.com/zjrosen/iceguest/internal/guest/page"
)

const minimalPage = `
contentTypes:
  - id: /page/plain
    name: Plain
    type: page
    fields:
      title_t: {id: title_t, name: Title, type: text}
models:
  - id: p1
    path: /site/plain.xml
    contentTypeId: /page/plain
elements:
  - name: title
    rect: {left: 0, top: 0, width: 100, height: 20}
    ice:
      - {modelId: p1, fieldId: title_t}
`

func TestParse_DefaultViewport(t *testing.T) {
	f, err := page.Parse([]byte(minimalPage))
	require.NoError(t, err)
	require.Equal(t, page.Viewport{Width: 1280, Height: 800}, f.Viewport)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := page.Parse([]byte("elements: [unterminated"))
	require.ErrorContains(t, err, "parse page fixture")
}

func TestBuild_Minimal(t *testing.T) {
	f, err := page.Parse([]byte(minimalPage))
	require.NoError(t, err)
	p, err := page.Build(f)
	require.NoError(t, err)

	node, ok := p.Node("title")
	require.True(t, ok)
	n, ok := p.Doc.Node(node)
	require.True(t, ok)
	require.Equal(t, "div", n.Tag)

	_, ok = p.Element("title")
	require.True(t, ok)
	require.Len(t, p.ElementNames(), 1)
}

func TestBuild_SamplePage(t *testing.T) {
	p := guesttest.SamplePage(t)

	names := p.ElementNames()
	for _, name := range []string{"title", "hero", "sections", "feat-1", "feat-2", "gallery", "feat-3", "links", "link-0", "link-1"} {
		require.Contains(t, names, name)
	}
	require.Len(t, p.SandboxItems, 2)
	require.Contains(t, p.ContentTypes, guesttest.FeatureType)

	// The body grows to fit elements below the viewport.
	body, ok := p.Doc.Rect(p.Doc.Root())
	require.True(t, ok)
	require.Equal(t, 1024.0, body.Width)
	require.Equal(t, 1160.0, body.Height)
}

func TestBuild_DuplicateName(t *testing.T) {
	f, err := page.Parse([]byte(minimalPage))
	require.NoError(t, err)
	f.Elements = append(f.Elements, f.Elements[0])

	_, err = page.Build(f)
	require.ErrorIs(t, err, page.ErrDuplicateName)
}

func TestBuild_UnknownModel(t *testing.T) {
	f, err := page.Parse([]byte(minimalPage))
	require.NoError(t, err)
	f.Elements[0].ICE[0].ModelID = "missing"

	_, err = page.Build(f)
	require.ErrorIs(t, err, iceregistry.ErrUnknownModel)
}
