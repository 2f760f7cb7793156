package validation

import (
	"regexp"
	"strings"
)

// Scope name rules:
// - Lowercase only.
// - Start and end with [a-z0-9].
// - Middle chars may include [a-z0-9:_.-].
// - Length 1..64.
// - Excludes semicolon and whitespace explicitly.
//
// Examples valid: weather.read, admin.write, a, a_b-c.d:scope2
// Examples invalid: ;hack, BAD, bad space, :leader, trailer:, "", 65+ chars.
var scopeNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9:_\.-]{0,62}[a-z0-9])?$`)

// ValidScopeName returns true if the provided scope name matches the allowed pattern.
func ValidScopeName(name string) bool {
	return scopeNameRe.MatchString(name)
}

// ParseScopeParam splits a space-separated OAuth scope parameter into a slice.
// Empty or whitespace-only input yields an empty slice, never nil error.
func ParseScopeParam(s string) []string {
	return strings.Fields(s)
}

// IntersectScopes returns the members of requested that are also in granted,
// preserving the order of requested.
func IntersectScopes(requested, granted []string) []string {
	set := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		set[g] = struct{}{}
	}
	out := make([]string, 0, len(requested))
	for _, r := range requested {
		if _, ok := set[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// HasScope reports whether want is present in scopes.
func HasScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}
