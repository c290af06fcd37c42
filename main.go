package main

import (
	"github.com/kodelint/tooler/cmd"
)

// main is the program entry point.
// It delegates to cmd.Execute() which handles command line argument parsing and execution.
//
// tooler resolves, downloads, installs, and runs command-line tools published as
// release assets, identified by a repository coordinate like `owner/name` or
// `owner/name:version`. It keeps a local registry mapping each resolved
// tool+version to a verified executable on disk, so repeated invocations are
// cheap and installs survive across runs.
//
// Error handling strategy:
//   - Installation failures never leave a half-built version directory on disk
//     or a dangling registry record; each pipeline step is a hard gate.
//   - Registry entries whose executable has gone missing are treated as
//     corruption and self-healed (removed, then reinstalled on demand).
//   - A corrupt registry file degrades to an empty registry instead of
//     aborting startup.
func main() {
	cmd.Execute()
}
