package memory

import "strings"

var projectIDReplacer = strings.NewReplacer("/", "-", `\`, "-", ":", "-")

// ProjectID derives a stable identifier from a project's filesystem path:
// separators and colons become "-", the result is trimmed and lower-cased.
// The same path always yields the same ID.
//
//	/Users/Me/src/app   → users-me-src-app
//	C:\Work\App         → c--work-app
func ProjectID(path string) string {
	id := projectIDReplacer.Replace(strings.TrimSpace(path))
	id = strings.Trim(id, "- ")
	return strings.ToLower(id)
}
