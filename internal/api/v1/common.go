package v1

import "strings"

// splitTokenVerb splits an androidpublisher-style path segment of the
// form "<token>:<verb>" into its parts. Google's custom-method URLs put
// the verb after a colon in the final segment, which gin delivers as
// part of the path parameter.
func splitTokenVerb(segment string) (token string, verb string) {
	if i := strings.LastIndex(segment, ":"); i >= 0 {
		return segment[:i], segment[i+1:]
	}
	return segment, ""
}
