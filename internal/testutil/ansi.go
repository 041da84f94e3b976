// Package testutil holds helpers shared by the command-line tests.
package testutil

import "regexp"

// csi matches ANSI control sequences such as colour codes and cursor
// movement.
var csi = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI control sequences so rendered output can be
// compared as plain text.
func StripAnsiCodes(s string) string {
	return csi.ReplaceAllString(s, "")
}
