package scenario

import (
	"encoding/json"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/iceguest/internal/guest/machine"
)

// DiffStates renders the lines that differ between the indented JSON of
// before and after, prefixed with "- " and "+ ". Identical states yield "".
func DiffStates(before, after *machine.State) (string, error) {
	if before == after {
		return "", nil
	}
	oldText, err := stateText(before)
	if err != nil {
		return "", err
	}
	newText, err := stateText(after)
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String(), nil
}

func stateText(s *machine.State) (string, error) {
	if s == nil {
		return "", nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
