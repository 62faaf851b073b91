package memory

// SanitizeFTS exposes sanitizeFTS for tests in memory_test.
// This file only compiles during `go test`.
var SanitizeFTS = sanitizeFTS
