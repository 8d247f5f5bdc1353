// Package overlay is the terminal rendering of guest state. It paints the
// page map with highlighted records, drop zones and uploads, and lists
// validation messages, locks and the current drag beside it. Snapshots
// arrive from the bridge broker; keys dispatch local events back into it.
package overlay

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/iceguest/internal/guest/bridge"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/keys"
	"github.com/zjrosen/iceguest/internal/log"
	"github.com/zjrosen/iceguest/internal/pubsub"
)

const maxLogLines = 200

// Dispatcher queues events for the machine. *bridge.Bridge implements it.
type Dispatcher interface {
	Dispatch(ev machine.Event, src bridge.Source) error
}

// Options configure a Model.
type Options struct {
	States   pubsub.Subscriber[*machine.State]
	Dispatch Dispatcher
	// Logs is optional. When nil the log pane stays empty.
	Logs *log.LogListener
	// SaveHighlightMode persists a toggled mode. Optional.
	SaveHighlightMode func(machine.HighlightMode) error
	ShowLog           bool
}

// actionDoneMsg reports the outcome of a key action.
type actionDoneMsg struct {
	action string
	err    error
}

// Model is the Bubble Tea model of the overlay.
type Model struct {
	states   *pubsub.Listener[*machine.State]
	logs     *log.LogListener
	dispatch Dispatcher
	save     func(machine.HighlightMode) error

	keys keys.KeyMap
	help help.Model

	state   *machine.State
	updates int
	dropped int
	skipped int
	notice  string
	failed  bool

	width, height int
	showLog       bool
	showHelp      bool
	logView       viewport.Model
	logLines      []string
}

// New subscribes to opts.States for as long as ctx lives.
func New(ctx context.Context, opts Options) Model {
	m := Model{
		dispatch: opts.Dispatch,
		logs:     opts.Logs,
		save:     opts.SaveHighlightMode,
		keys:     keys.DefaultKeyMap(),
		help:     help.New(),
		state:    machine.Initial(),
		showLog:  opts.ShowLog,
		logView:  viewport.New(0, 0),
	}
	if opts.States != nil {
		m.states = pubsub.NewListener[*machine.State](ctx, opts.States)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.states != nil {
		cmds = append(cmds, m.states.Listen())
	}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	return tea.Batch(cmds...)
}

// State returns the last snapshot received.
func (m Model) State() *machine.State { return m.state }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resizeLog()
		return m, nil

	case pubsub.Batch[*machine.State]:
		if m.states == nil {
			return m, nil
		}
		if s, ok := msg.Latest(pubsub.StateEvent); ok && s != nil {
			m.state = s
		}
		m.updates += msg.Count(pubsub.StateEvent)
		m.dropped += msg.Count(pubsub.DroppedEvent)
		m.skipped += msg.Missed
		return m, m.states.Listen()

	case log.LogBatch:
		lines := make([]string, 0, len(msg.Events))
		for _, ev := range msg.Events {
			lines = append(lines, ev.Payload)
		}
		m.appendLog(lines...)
		if m.logs == nil {
			return m, nil
		}
		return m, m.logs.Listen()

	case actionDoneMsg:
		m.failed = msg.err != nil
		if msg.err != nil {
			m.notice = msg.action + ": " + msg.err.Error()
			log.ErrorErr(log.CatUI, "overlay action failed", msg.err, "action", msg.action)
		} else {
			m.notice = msg.action
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.ToggleLog):
		m.showLog = !m.showLog
		m.resizeLog()
	case key.Matches(msg, m.keys.Up):
		m.logView.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.logView.ScrollDown(1)
	case key.Matches(msg, m.keys.ToggleHighlight):
		return m, m.toggleHighlight()
	case key.Matches(msg, m.keys.ClearTargets):
		return m, m.send("cleared drop targets", machine.ClearHighlightedDropTargets{})
	case key.Matches(msg, m.keys.StartListening):
		return m, m.send("listening", machine.StartListening{})
	}
	return m, nil
}

func (m Model) send(action string, ev machine.Event) tea.Cmd {
	d := m.dispatch
	return func() tea.Msg {
		if d == nil {
			return actionDoneMsg{action: action, err: bridge.ErrNotRunning}
		}
		return actionDoneMsg{action: action, err: d.Dispatch(ev, bridge.SourceLocal)}
	}
}

// toggleHighlight flips between highlighting everything and only move
// targets, then persists the choice.
func (m Model) toggleHighlight() tea.Cmd {
	next := machine.HighlightMoveTargets
	if m.state.HighlightMode == machine.HighlightMoveTargets {
		next = machine.HighlightAll
	}
	d, save := m.dispatch, m.save
	action := "highlight mode " + string(next)
	return func() tea.Msg {
		if d == nil {
			return actionDoneMsg{action: action, err: bridge.ErrNotRunning}
		}
		if err := d.Dispatch(machine.HighlightModeChanged{HighlightMode: next}, bridge.SourceLocal); err != nil {
			return actionDoneMsg{action: action, err: err}
		}
		if save != nil {
			if err := save(next); err != nil {
				return actionDoneMsg{action: action, err: err}
			}
		}
		return actionDoneMsg{action: action}
	}
}

func (m *Model) appendLog(lines ...string) {
	for _, line := range lines {
		m.logLines = append(m.logLines, strings.TrimRight(line, "\n"))
	}
	if over := len(m.logLines) - maxLogLines; over > 0 {
		m.logLines = m.logLines[over:]
	}
	m.logView.SetContent(strings.Join(m.logLines, "\n"))
	m.logView.GotoBottom()
}

func (m *Model) resizeLog() {
	m.logView.Width = max(m.width-4, 0)
	m.logView.Height = max(m.height/4, 3)
}
