// SPDX-License-Identifier: Apache-2.0

package version

import (
	_ "embed"
	"strings"
)

// The release number and commit hash are embedded at build time; dev builds
// carry the placeholder values checked into the tree.

//go:embed COMMIT
var commit string

//go:embed VERSION
var number string

// buildMode is stamped by the release pipeline:
// -ldflags="-X 'github.com/stratahq/strata/internal/version.buildMode=release'"
var buildMode string

func Commit() string {
	return commit
}

func Number() string {
	return number
}

// IsReleaseBuild reports whether this binary was produced by the release
// pipeline. Local builds leave buildMode unset.
func IsReleaseBuild() bool {
	return strings.TrimSpace(buildMode) == "release"
}

func BuildMode() string {
	if IsReleaseBuild() {
		return "release"
	}
	return "dev"
}
