package tshark

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionInfo carries the version of the installed tshark executable along
// with the full banner it printed.
type VersionInfo struct {
	version *semver.Version
	message string
}

// Version returns the parsed tshark version, usable for feature gating.
func (v *VersionInfo) Version() *semver.Version { return v.version }

// Message returns the complete --version output: version line, copyrights,
// compile and runtime environment.
func (v *VersionInfo) Message() string { return v.message }

// Version probes the tshark executable on PATH with --version.
func Version() (*VersionInfo, error) {
	out, err := exec.Command(executable, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return parseVersion(string(out))
}

// parseVersion scans the banner for the first whitespace token that parses
// as a version. The banner shape is e.g. "TShark (Wireshark) 4.0.6 (...)".
func parseVersion(message string) (*VersionInfo, error) {
	for _, token := range strings.Fields(message) {
		if v, err := semver.StrictNewVersion(token); err == nil {
			return &VersionInfo{version: v, message: message}, nil
		}
	}
	return nil, ErrNoVersion
}
