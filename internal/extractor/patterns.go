package extractor

import (
	"regexp"
	"strings"
)

var (
	// Pattern: @@ <region>
	sectionPattern = regexp.MustCompile(`^\s*@@\s*(\w+)\s*$`)
)

// Region names recognized in form files.
const (
	regionEquations = "equations"
	regionCallbacks = "callbacks"
	regionEnd       = "end"
)

// matchSection returns [region] if line is a form section marker
func matchSection(line string) []string {
	if m := sectionPattern.FindStringSubmatch(line); m != nil {
		return []string{strings.ToLower(m[1])}
	}
	return nil
}

// Statements whose leading keyword declares a script-local variable.
var declKeywords = map[string]bool{
	"var":   true,
	"let":   true,
	"const": true,
	"local": true,
}

var assignOps = map[string]bool{
	"=":  true,
	"+=": true,
	"-=": true,
	"*=": true,
	"/=": true,
}
