// SPDX-License-Identifier: Apache-2.0

// Package version exposes the build identity of the strata binary: the
// release number and commit stamped into the binary, plus the Go runtime it
// was compiled with.
package version

import (
	"encoding/json"
	"runtime"
	"strings"

	"github.com/joomcode/errorx"
	"gopkg.in/yaml.v3"
)

// Info is the build identity reported by `strata version`.
type Info struct {
	Number    string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	GoVersion string `json:"go" yaml:"go"`
}

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Format renders the info in the requested output format.
func (v Info) Format(format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		out, err := json.Marshal(v)
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "cannot render version info as JSON")
		}
		return string(out), nil
	case FormatYAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "cannot render version info as YAML")
		}
		return string(out), nil
	default:
		return "", errorx.IllegalFormat.New("unsupported format: %s", format)
	}
}

var versionInfo = Info{
	Number:    Number(),
	Commit:    Commit(),
	GoVersion: runtime.Version(),
}

// Get returns the build identity of this binary.
func Get() Info {
	return versionInfo
}
