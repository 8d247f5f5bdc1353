package presentation

import (
	"fmt"
	"strings"
	"time"

	"github.com/zjrosen/iceguest/internal/guest/journal"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/scenario"
)

// SessionDTO represents a journal session for presentation
type SessionDTO struct {
	GUID      string     `json:"guid"`
	Source    string     `json:"source"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Entries   int        `json:"entries"`
}

// FromSession converts a journal session to a DTO.
func FromSession(s *journal.Session) SessionDTO {
	return SessionDTO{
		GUID:      s.GUID,
		Source:    s.Source,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Entries:   s.Entries,
	}
}

// SessionDetailDTO is a session with its entries.
type SessionDetailDTO struct {
	SessionDTO
	Events []journal.Entry `json:"events"`
}

// StepDTO is one dispatch of a replayed scenario. Diff is filled only when
// diffs were requested and the state changed.
type StepDTO struct {
	Step         int            `json:"step"`
	Event        string         `json:"event"`
	Source       string         `json:"source"`
	StatusBefore machine.Status `json:"status_before"`
	StatusAfter  machine.Status `json:"status_after"`
	Changed      bool           `json:"changed"`
	Dropped      bool           `json:"dropped,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	Diff         []string       `json:"diff,omitempty"`
}

// ReportDTO is the outcome of a replay.
type ReportDTO struct {
	Name     string         `json:"name"`
	Passed   bool           `json:"passed"`
	Failures []string       `json:"failures,omitempty"`
	Steps    []StepDTO      `json:"steps"`
	Final    *machine.State `json:"final"`
}

// FromReport converts a replay report, attaching state diffs to changed
// steps when withDiff is set.
func FromReport(r *scenario.Report, withDiff bool) (ReportDTO, error) {
	out := ReportDTO{
		Name:     r.Name,
		Passed:   r.Passed(),
		Failures: r.Failures,
		Steps:    make([]StepDTO, 0, len(r.Steps)),
		Final:    r.Final,
	}
	for _, s := range r.Steps {
		step := StepDTO{
			Step:         s.Step,
			Event:        s.Event,
			Source:       s.Source,
			StatusBefore: s.StatusBefore,
			StatusAfter:  s.StatusAfter,
			Changed:      s.Changed,
			Dropped:      s.Dropped,
			Reason:       s.Reason,
		}
		if withDiff && s.Changed {
			diff, err := scenario.DiffStates(s.Before, s.After)
			if err != nil {
				return ReportDTO{}, fmt.Errorf("diff step %d: %w", s.Step, err)
			}
			if diff != "" {
				step.Diff = strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
			}
		}
		out.Steps = append(out.Steps, step)
	}
	return out, nil
}
