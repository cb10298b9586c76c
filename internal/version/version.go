// Package version holds the build version banner logged at startup. It is
// informational only and never part of the wire protocol.
package version

import "github.com/blang/semver"

// Current is the cipherlink build version.
var Current = semver.MustParse("1.0.0")
