// Package watchfs holds identity information for the module: its version and
// a global debug flag consulted by pkg/logging.
package watchfs

import (
	"fmt"
	"os"
)

const (
	// VersionMajor represents the current major version.
	VersionMajor = 0
	// VersionMinor represents the current minor version.
	VersionMinor = 1
	// VersionPatch represents the current patch version.
	VersionPatch = 0
)

// Version is the module's version string, derived from VersionMajor,
// VersionMinor, and VersionPatch.
var Version string

func init() {
	Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}

// DebugEnabled controls whether pkg/logging's Logger.Debug* methods produce
// output. It's initialized from the WATCHFS_DEBUG environment variable; the
// CLI may also set it at startup from its --debug flag or preferences file.
var DebugEnabled bool

func init() {
	DebugEnabled = os.Getenv("WATCHFS_DEBUG") == "1"
}
