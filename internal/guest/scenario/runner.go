package scenario

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/zjrosen/iceguest/internal/cachemanager"
	"github.com/zjrosen/iceguest/internal/guest/bridge"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
	"github.com/zjrosen/iceguest/internal/guest/page"
	"github.com/zjrosen/iceguest/internal/log"
)

// StepResult is the outcome of one dispatched event. A pointer step yields
// one result per event it was translated into.
type StepResult struct {
	Step         int            `yaml:"step" json:"step"`
	Event        string         `yaml:"event" json:"event"`
	Source       string         `yaml:"source" json:"source"`
	StatusBefore machine.Status `yaml:"statusBefore" json:"statusBefore"`
	StatusAfter  machine.Status `yaml:"statusAfter" json:"statusAfter"`
	Changed      bool           `yaml:"changed" json:"changed"`
	Dropped      bool           `yaml:"dropped,omitempty" json:"dropped,omitempty"`
	Reason       string         `yaml:"reason,omitempty" json:"reason,omitempty"`

	Before *machine.State `yaml:"-" json:"-"`
	After  *machine.State `yaml:"-" json:"-"`
}

// Report is the outcome of a replay.
type Report struct {
	Name     string         `yaml:"name" json:"name"`
	Steps    []StepResult   `yaml:"steps" json:"steps"`
	Final    *machine.State `yaml:"final" json:"final"`
	Failures []string       `yaml:"failures,omitempty" json:"failures,omitempty"`
}

// Passed reports whether every expectation held.
func (r *Report) Passed() bool {
	return len(r.Failures) == 0
}

// Runner replays scenarios through a fresh bridge per run.
type Runner struct {
	loader  *Loader
	options []bridge.Option
	timeout time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBridgeOptions passes options to every bridge the runner creates.
func WithBridgeOptions(opts ...bridge.Option) RunnerOption {
	return func(r *Runner) {
		r.options = append(r.options, opts...)
	}
}

// WithStepTimeout bounds the wait for each step.
func WithStepTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRunner creates a runner that builds pages with loader.
func NewRunner(loader *Loader, opts ...RunnerOption) *Runner {
	r := &Runner{loader: loader, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run builds the scenario's page and dispatches its steps in order. A step
// that fails to decode stops the run.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	p, err := r.loader.Build(ctx, sc)
	if err != nil {
		return nil, err
	}

	sandbox := cachemanager.NewInMemoryCacheManager[string, model.SandboxItem]("sandbox", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	for _, item := range p.SandboxItems {
		sandbox.Set(ctx, item.Path, item, cachemanager.DefaultExpiration)
	}
	opts := append([]bridge.Option{bridge.WithSandboxCache(sandbox, cachemanager.DefaultExpiration)}, r.options...)
	b := bridge.New(p.ICE, p.Elements, opts...)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go b.Run(runCtx)
	if err := b.WaitForReady(runCtx); err != nil {
		return nil, err
	}
	defer b.Stop()

	log.Info(log.CatScenario, "replaying scenario", "name", sc.Name, "steps", len(sc.Steps))

	report := &Report{Name: sc.Name}
	for i, step := range sc.Steps {
		results, err := r.runStep(runCtx, b, p, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		for _, res := range results {
			report.Steps = append(report.Steps, stepResult(i+1, res))
		}
	}
	report.Final = b.State()
	if sc.Expect != nil {
		report.Failures = sc.Expect.check(report.Final, p)
	}
	return report, nil
}

func (r *Runner) runStep(ctx context.Context, b *bridge.Bridge, p *page.Page, step Step) ([]*bridge.Result, error) {
	stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if step.Pointer != nil {
		return b.MovePointerAndWait(stepCtx, step.Pointer.X, step.Pointer.Y)
	}
	ev, err := step.event(p)
	if err != nil {
		return nil, err
	}
	res, err := b.DispatchAndWait(stepCtx, ev, bridge.SourceScript)
	if err != nil {
		return nil, err
	}
	return []*bridge.Result{res}, nil
}

func stepResult(step int, res *bridge.Result) StepResult {
	out := StepResult{
		Step:         step,
		Source:       string(res.Source),
		StatusBefore: res.Before.Status,
		StatusAfter:  res.After.Status,
		Changed:      res.Changed(),
		Dropped:      res.Dropped,
		Reason:       res.Reason,
		Before:       res.Before,
		After:        res.After,
	}
	if res.Event != nil {
		out.Event = string(res.Event.Type())
	}
	return out
}

func (e *Expect) check(s *machine.State, p *page.Page) []string {
	var failures []string
	if e.Status != "" && s.Status != e.Status {
		failures = append(failures, fmt.Sprintf("status: want %s, got %s", e.Status, s.Status))
	}
	if e.HostCheckedIn != nil && s.HostCheckedIn != *e.HostCheckedIn {
		failures = append(failures, fmt.Sprintf("hostCheckedIn: want %t, got %t", *e.HostCheckedIn, s.HostCheckedIn))
	}
	dragging := s.DragContext != nil
	if e.Dragging != nil && dragging != *e.Dragging {
		failures = append(failures, fmt.Sprintf("dragging: want %t, got %t", *e.Dragging, dragging))
	}
	if e.InvalidDrop != nil {
		invalid := dragging && s.DragContext.InvalidDrop
		if invalid != *e.InvalidDrop {
			failures = append(failures, fmt.Sprintf("invalidDrop: want %t, got %t", *e.InvalidDrop, invalid))
		}
	}
	if e.Highlighted != nil {
		want := make([]int, 0, len(e.Highlighted))
		for _, name := range e.Highlighted {
			id, ok := p.Element(name)
			if !ok {
				failures = append(failures, fmt.Sprintf("highlighted: %v: %s", ErrUnknownNode, name))
				continue
			}
			want = append(want, id)
		}
		got := make([]int, 0, len(s.Highlighted))
		for id := range s.Highlighted {
			got = append(got, id)
		}
		slices.Sort(want)
		slices.Sort(got)
		if !slices.Equal(want, got) {
			failures = append(failures, fmt.Sprintf("highlighted: want %v, got %v", want, got))
		}
	}
	return failures
}
