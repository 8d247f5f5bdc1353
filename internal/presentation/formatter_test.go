package presentation

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/iceguest/internal/guest/journal"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/scenario"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, f)

	f, err = ParseFormat("yaml")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	require.ErrorContains(t, err, `unknown format "xml"`)
}

func TestFormatSessions_JSON(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := []SessionDTO{FromSession(&journal.Session{
		ID:        7,
		GUID:      "abc",
		Source:    "replay",
		StartedAt: started,
		Entries:   4,
	})}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, FormatJSON).FormatSessions(sessions))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	require.Equal(t, "abc", decoded[0]["guid"])
	require.Equal(t, float64(4), decoded[0]["entries"])
	require.NotContains(t, decoded[0], "ended_at")
}

func TestFormatReport_YAMLKeepsJSONNames(t *testing.T) {
	s := machine.Initial()
	report := ReportDTO{
		Name:   "sort",
		Passed: true,
		Steps: []StepDTO{{
			Step:         1,
			Event:        "hostCheckIn",
			Source:       "script",
			StatusBefore: machine.StatusListening,
			StatusAfter:  machine.StatusListening,
			Changed:      true,
		}},
		Final: s,
	}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, FormatYAML).FormatReport(report))
	out := buf.String()

	require.True(t, strings.HasPrefix(out, "name: sort\n"), out)
	require.Contains(t, out, "status_before: LISTENING")
	require.Contains(t, out, "hostCheckedIn: false")
	require.Contains(t, out, "final:\n  dragContext: null\n", "mappings should be block style")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, true, decoded["passed"])
}

func TestFromReport_Diffs(t *testing.T) {
	before := machine.Initial()
	after := machine.Initial()
	after.HostCheckedIn = true

	report := &scenario.Report{
		Name: "check in",
		Steps: []scenario.StepResult{
			{Step: 1, Event: "hostCheckIn", Changed: true, Before: before, After: after},
			{Step: 2, Event: "mouseleave", Changed: false, Before: after, After: after},
		},
		Final: after,
	}

	dto, err := FromReport(report, true)
	require.NoError(t, err)
	require.True(t, dto.Passed)
	require.Equal(t, []string{`-   "hostCheckedIn": false,`, `+   "hostCheckedIn": true,`}, dto.Steps[0].Diff)
	require.Nil(t, dto.Steps[1].Diff)

	dto, err = FromReport(report, false)
	require.NoError(t, err)
	require.Nil(t, dto.Steps[0].Diff)
}
