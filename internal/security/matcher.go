package security

import (
	"regexp"
	"strings"
)

// Matches reports whether the permission applies to the requested
// (resource, action) pair. Resources match on exact equality, the bare
// wildcard "*", or glob patterns where "*" is any run of characters and
// "?" is exactly one. Actions match exactly or on "*".
func (p *Permission) Matches(resource, action string) bool {
	return matchResource(p.Resource, resource) && matchAction(p.Action, action)
}

func matchResource(pattern, resource string) bool {
	if pattern == "*" {
		return true
	}
	if pattern == resource {
		return true
	}
	if !strings.ContainsAny(pattern, "*?") {
		return false
	}
	re, err := compileGlob(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(resource)
}

func matchAction(pattern, action string) bool {
	return pattern == "*" || pattern == action
}

// compileGlob turns a dot-segmented glob into an anchored regexp. Dots in
// the pattern are literal separators, never regexp metacharacters.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
