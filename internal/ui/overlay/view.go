package overlay

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	panelWidth    = 38
)

// View implements tea.Model.
func (m Model) View() string {
	width, height := m.width, m.height
	if width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}

	header := m.header()
	footer := m.footer()

	var logPane string
	if m.showLog {
		logPane = panelStyle.Width(max(width-2, 0)).Render(m.logView.View())
	}

	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(footer)
	if logPane != "" {
		bodyHeight -= lipgloss.Height(logPane)
	}
	bodyHeight = max(bodyHeight, 1)

	pm := newPageMap(width, bodyHeight)
	pm.fromState(m.state)

	layers := []Layer{Anchor(TopRight, width, bodyHeight, 0, detailsPanel(m.state))}
	if m.showHelp {
		layers = append(layers, Anchor(Center, width, bodyHeight, 0, panelStyle.Render(m.help.FullHelpView(m.keys.FullHelp()))))
	}
	body := Compose(width, bodyHeight, pm.render(), layers...)

	parts := []string{header, body}
	if logPane != "" {
		parts = append(parts, logPane)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) header() string {
	s := m.state
	badge := statusBadgeStyle
	if s.DragContext != nil {
		badge = dragBadgeStyle
	}

	edit := "edit off"
	if s.EditMode {
		edit = "edit on"
	}
	checkIn := "waiting for host"
	if s.HostCheckedIn {
		checkIn = fmt.Sprintf("%s@%s", s.Username, s.ActiveSite)
	}

	info := mutedStyle.Render(fmt.Sprintf(" %s · %s · %s · %d updates", checkIn, edit, s.HighlightMode, m.updates))
	if m.dropped > 0 {
		info += warningStyle.Render(fmt.Sprintf(" · %d dropped", m.dropped))
	}
	if m.skipped > 0 {
		info += warningStyle.Render(fmt.Sprintf(" · %d skipped", m.skipped))
	}
	return badge.Render(string(s.Status)) + info
}

func (m Model) footer() string {
	line := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.notice != "" {
		notice := mutedStyle.Render(m.notice)
		if m.failed {
			notice = errorStyle.Render(m.notice)
		}
		line = notice + "  " + line
	}
	return line
}

// detailsPanel lists what the page map cannot show: labels, validation
// messages, locks and the drag in progress.
func detailsPanel(s *machine.State) string {
	var sections []string

	if dc := s.DragContext; dc != nil {
		var lines []string
		switch {
		case dc.Dragged != nil:
			lines = append(lines, "moving "+recordLabel(*dc.Dragged))
		case dc.Asset != nil:
			lines = append(lines, "placing asset "+dc.Asset.Name)
		case dc.ContentTypeID != "":
			lines = append(lines, "placing "+dc.ContentTypeID)
		}
		if dc.Scrolling {
			lines = append(lines, mutedStyle.Render("scrolling"))
		}
		if dc.InvalidDrop {
			lines = append(lines, errorStyle.Render("drop not allowed here"))
		}
		sections = append(sections, section("Drag", lines))

		zones := make([]string, 0, len(dc.DropZones))
		for _, dz := range dc.DropZones {
			line := fmt.Sprintf("#%d %d children", dz.ElementRecordID, len(dz.Children))
			if dz.Origin {
				line += " (origin)"
			}
			if dc.DropZone != nil && dc.DropZone.ElementRecordID == dz.ElementRecordID {
				line = titleStyle.Render("> " + line)
			}
			zones = append(zones, line)
			zones = append(zones, validationLines(dz.Validations)...)
		}
		sections = append(sections, section("Drop zones", zones))
	}

	if len(s.Highlighted) > 0 {
		lines := make([]string, 0, len(s.Highlighted))
		for _, id := range sortedKeys(s.Highlighted) {
			hd := s.Highlighted[id]
			line := hd.Label
			if _, ok := s.Draggable[id]; ok {
				line += mutedStyle.Render(" ⠿")
			}
			lines = append(lines, line)
			lines = append(lines, validationLines(hd.Validations)...)
		}
		sections = append(sections, section("Highlighted", lines))
	}

	if len(s.LockedPaths) > 0 || len(s.ExternallyModifiedPaths) > 0 {
		var lines []string
		for _, p := range sortedPaths(s.LockedPaths) {
			lines = append(lines, fmt.Sprintf("%s locked by %s", p, s.LockedPaths[p].Username))
		}
		for _, p := range sortedPaths(s.ExternallyModifiedPaths) {
			lines = append(lines, warningStyle.Render(fmt.Sprintf("%s modified by %s", p, s.ExternallyModifiedPaths[p].Username)))
		}
		sections = append(sections, section("Locks", lines))
	}

	if len(s.Uploading) > 0 {
		lines := make([]string, 0, len(s.Uploading))
		for _, id := range sortedKeys(s.Uploading) {
			up := s.Uploading[id]
			lines = append(lines, fmt.Sprintf("%s %3d%%", up.Label, up.Progress))
		}
		sections = append(sections, section("Uploads", lines))
	}

	if len(sections) == 0 {
		sections = append(sections, mutedStyle.Render("nothing highlighted"))
	}
	return panelStyle.Width(panelWidth).Render(strings.Join(sections, "\n\n"))
}

func section(title string, lines []string) string {
	if len(lines) == 0 {
		lines = []string{mutedStyle.Render("none")}
	}
	return titleStyle.Render(title) + "\n" + strings.Join(lines, "\n")
}

func validationLines(v model.Validations) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		r := v[model.ValidationKey(k)]
		style := warningStyle
		if r.Level == model.LevelRequired {
			style = errorStyle
		}
		out = append(out, style.Render("  ! "+r.Message))
	}
	return out
}

func recordLabel(r model.ElementRecord) string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("#%d", r.ID)
}

func sortedPaths(m map[string]model.User) []string {
	out := make([]string, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
