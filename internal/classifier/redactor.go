package classifier

import (
	"strings"
)

// Redactor removes thought lines from a message.
type Redactor struct {
	whole *WholeMessageDetector
	lines *LineClassifier
}

// NewRedactor creates a Redactor.
func NewRedactor(whole *WholeMessageDetector, lines *LineClassifier) *Redactor {
	return &Redactor{whole: whole, lines: lines}
}

// FilterThoughts returns text with thought lines removed. A whole-message hit
// removes everything and records the original text as the single removed unit.
// Surviving lines are never edited or reordered.
func (r *Redactor) FilterThoughts(text string) Redaction {
	if label, ok := r.whole.Detect(text); ok {
		return Redaction{
			FilteredText: "",
			RemovedLines: []string{text},
			Labels:       []string{label},
			WholeMessage: true,
		}
	}

	var result Redaction
	seen := make(map[string]struct{})
	for _, line := range splitLines(text) {
		v := r.lines.Explain(line)
		if !v.IsThought {
			result.KeptLines = append(result.KeptLines, line)
			continue
		}
		result.RemovedLines = append(result.RemovedLines, line)
		if _, dup := seen[v.Label]; !dup {
			seen[v.Label] = struct{}{}
			result.Labels = append(result.Labels, v.Label)
		}
	}

	result.FilteredText = strings.TrimSpace(strings.Join(result.KeptLines, "\n"))
	return result
}

// splitLines splits on line feeds. A trailing carriage return stays part of
// its line so that kept lines are reproduced byte for byte.
func splitLines(text string) []string {
	return strings.Split(text, "\n")
}
