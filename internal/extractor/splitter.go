package extractor

import (
	"fmt"
	"os"
	"strings"
)

// FormSplitter isolates the equation and callback scripts embedded in a UI
// form description file.
type FormSplitter struct {
	eqn strings.Builder
	cb  strings.Builder
}

// Extract reads the form file at path and splits it. The returned error wraps
// fs.ErrNotExist when the file is missing.
func (s *FormSplitter) Extract(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading form file: %w", err)
	}
	s.Split(string(content))
	return nil
}

// Split partitions form text into its regions. Text before the first section
// marker is form layout and is dropped, as are regions with unknown names.
func (s *FormSplitter) Split(content string) {
	s.eqn.Reset()
	s.cb.Reset()

	var dst *strings.Builder
	for _, line := range splitLines(content) {
		if m := matchSection(line); m != nil {
			switch m[0] {
			case regionEquations:
				dst = &s.eqn
			case regionCallbacks:
				dst = &s.cb
			case regionEnd:
				dst = nil
			default:
				dst = nil
			}
			continue
		}
		if dst != nil {
			dst.WriteString(line)
			dst.WriteByte('\n')
		}
	}
}

// EquationScript returns the equation region, or "" when absent.
func (s *FormSplitter) EquationScript() string {
	return s.eqn.String()
}

// CallbackScript returns the callback region, or "" when absent.
func (s *FormSplitter) CallbackScript() string {
	return s.cb.String()
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, strings.TrimSuffix(s[start:i], "\r"))
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, strings.TrimSuffix(s[start:], "\r"))
	}
	return lines
}
