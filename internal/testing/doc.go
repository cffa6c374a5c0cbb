// Package testing contains fixtures and assertions shared by the site,
// preview and CLI tests.
package testing

const (
	testDirPermissions  = 0o755
	testFilePermissions = 0o644
)
