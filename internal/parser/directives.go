package parser

import (
	"regexp"
	"strings"
)

var (
	suppressPattern  = regexp.MustCompile(`@(file:)?Suppress\s*\(([^)]*)\)`)
	stringArgPattern = regexp.MustCompile("\"([^\"]*)\"|'([^']*)'|`([^`]*)`")
)

// ParseDirective extracts the names of a suppression directive from a
// decorator or comment text such as `@Suppress("RuleA", "style")` or
// `// @file:Suppress("all")`. Only string literal arguments count.
func ParseDirective(text string) (names []string, fileScope bool, ok bool) {
	m := suppressPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false, false
	}

	for _, arg := range stringArgPattern.FindAllStringSubmatch(m[2], -1) {
		name := strings.TrimSpace(arg[1] + arg[2] + arg[3])
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, false, false
	}
	return names, m[1] != "", true
}
