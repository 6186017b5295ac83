// Package version carries the build metadata stamped in at link time with
// -ldflags "-X github.com/gridkit/editordb/cli/internal/version.Number=...".
package version

import (
	"fmt"
	"runtime"
)

var (
	// Number is the release number.
	Number = "0.1.0"
	// Commit is the source revision the binary was built from.
	Commit = "none"
	// Date is the build date.
	Date = "unknown"
)

// Short returns the one line form printed by the version command.
func Short() string {
	return fmt.Sprintf("editordb %s (%s/%s, %s)", Number, runtime.GOOS, runtime.GOARCH, runtime.Version())
}
