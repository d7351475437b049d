// Package tshark spawns tshark processes configured to emit PDML reports
// and supervises their lifecycle. A Builder collects launch parameters, a
// Session wraps one running process and streams decoded packets out of it.
//
// tshark must be installed for this package to do anything useful; the
// decoding itself (pkg/pdml) works against any PDML byte stream.
package tshark

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const executable = "tshark"

// Builder collects tshark launch parameters. Setters return the builder for
// chaining; a zero builder is not usable, start from NewBuilder.
type Builder struct {
	inputPaths        []string
	liveCapture       bool
	metadataBlacklist []string
	metadataWhitelist []string
	captureFilter     string
	displayFilter     string
	envPath           string
	options           []string
	disabledProtocols []string
	enabledProtocols  []string
	outputPath        string
	decodeAs          []string
}

// NewBuilder prepares a launch reading packets from path: a capture file by
// default, or a network interface / named pipe once LiveCapture is set.
func NewBuilder(inputPath string) *Builder {
	return &Builder{inputPaths: []string{inputPath}}
}

// InputPath adds another input. Multiple inputs only work with live capture
// (one -i per input); with a capture file tshark honours only the last -r,
// so Args refuses the combination.
func (b *Builder) InputPath(path string) *Builder {
	b.inputPaths = append(b.inputPaths, path)
	return b
}

// LiveCapture switches the input from a capture file (-r) to a live source
// (-i): a network interface or a named pipe carrying pcap data.
func (b *Builder) LiveCapture() *Builder {
	b.liveCapture = true
	return b
}

// CaptureFilter sets the libpcap filter applied while capturing. Only
// meaningful with LiveCapture; ignored otherwise, mirroring tshark.
func (b *Builder) CaptureFilter(filter string) *Builder {
	b.captureFilter = filter
	return b
}

// DisplayFilter sets the read filter (-Y) applied to decoded packets.
func (b *Builder) DisplayFilter(filter string) *Builder {
	b.displayFilter = filter
	return b
}

// MetadataBlacklist suppresses the named fields on the decoding side: they
// never enter the packet tree. May be called repeatedly.
func (b *Builder) MetadataBlacklist(names ...string) *Builder {
	b.metadataBlacklist = append(b.metadataBlacklist, names...)
	return b
}

// MetadataWhitelist restricts the report to the named fields (-e), which is
// a large tshark-side performance win for small field sets. In this mode
// tshark stops wrapping fields in proto tags, so layers are synthesized
// from field-name prefixes. May be called repeatedly.
func (b *Builder) MetadataWhitelist(names ...string) *Builder {
	b.metadataWhitelist = append(b.metadataWhitelist, names...)
	return b
}

// EnvPath replaces the PATH used to resolve the tshark executable.
func (b *Builder) EnvPath(path string) *Builder {
	b.envPath = path
	return b
}

// Option adds a -o protocol option, e.g. "ip.defragment:false".
func (b *Builder) Option(option string) *Builder {
	b.options = append(b.options, option)
	return b
}

// KeylogFile points tshark at a TLS key log file so TLS payloads decode.
func (b *Builder) KeylogFile(path string) *Builder {
	return b.Option("tls.keylog_file:" + path)
}

// DisableProtocol disables a dissector by name ("ALL" disables everything).
func (b *Builder) DisableProtocol(protocol string) *Builder {
	b.disabledProtocols = append(b.disabledProtocols, protocol)
	return b
}

// EnableProtocol enables a dissector by name.
func (b *Builder) EnableProtocol(protocol string) *Builder {
	b.enabledProtocols = append(b.enabledProtocols, protocol)
	return b
}

// OutputPath makes tshark also write raw packet data to a capture file (-w).
func (b *Builder) OutputPath(path string) *Builder {
	b.outputPath = path
	return b
}

// DecodeAs adds a -d expression, e.g. "tcp.port==8080,http2".
func (b *Builder) DecodeAs(expr string) *Builder {
	b.decodeAs = append(b.decodeAs, expr)
	return b
}

// args builds the argv shared by Spawn and Batch: input handling first, then
// the fixed -n -Q, then the optional parameters.
func (b *Builder) args() ([]string, error) {
	var args []string
	switch {
	case len(b.inputPaths) == 0 || b.inputPaths[0] == "":
		return nil, ErrNoInput
	case b.liveCapture:
		for _, p := range b.inputPaths {
			args = append(args, "-i", p)
		}
	default:
		if len(b.inputPaths) > 1 {
			return nil, ErrMultipleInputs
		}
		input := b.inputPaths[0]
		if _, err := os.Stat(input); err != nil {
			return nil, fmt.Errorf("tshark: input %s: %w", input, err)
		}
		args = append(args, "-r", input)
	}

	// -n disables name resolution, -Q keeps packet counters off stderr so
	// the diagnostic channel only ever carries real errors.
	args = append(args, "-n", "-Q")

	if b.outputPath != "" {
		args = append(args, "-w", b.outputPath)
	}
	if b.liveCapture && b.captureFilter != "" {
		args = append(args, "-f", b.captureFilter)
	}
	if b.displayFilter != "" {
		args = append(args, "-Y", b.displayFilter)
	}
	for _, expr := range b.decodeAs {
		args = append(args, "-d", expr)
	}
	for _, option := range b.options {
		args = append(args, "-o", option)
	}
	for _, name := range b.metadataWhitelist {
		args = append(args, "-e", name)
	}
	for _, protocol := range b.disabledProtocols {
		args = append(args, "--disable-protocol", protocol)
	}
	for _, protocol := range b.enabledProtocols {
		args = append(args, "--enable-protocol", protocol)
	}
	return args, nil
}

// lookup resolves the tshark executable, honouring the EnvPath override.
func (b *Builder) lookup() (string, error) {
	if b.envPath == "" {
		path, err := exec.LookPath(executable)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return path, nil
	}
	for _, dir := range filepath.SplitList(b.envPath) {
		candidate := filepath.Join(dir, executable)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNotFound, b.envPath)
}

// Spawn starts a tshark process emitting an unbuffered PDML report and
// returns the session wrapping it. Spawn fails when the executable or the
// input file cannot be resolved; later failures (bad filter syntax,
// unwritable output path) kill the process shortly after start and surface
// on the first ambiguous end-of-stream Read.
func (b *Builder) Spawn() (*Session, error) {
	args, err := b.args()
	if err != nil {
		return nil, err
	}
	// -Tpdml selects the report format, -l unbuffers it so live packets
	// appear as they are dissected.
	args = append(args, "-Tpdml", "-l")

	path, err := b.lookup()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("tshark: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("tshark: stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("tshark: start: %w", err)
	}
	return newSession(cmd, stdout, stderr, b.metadataBlacklist), nil
}

// Batch runs tshark to completion without packet access, e.g. to convert or
// filter a capture into OutputPath. A non-zero exit with a diagnostic line
// on stderr becomes an ErrProcessFailed; a silent non-zero exit is treated
// as success, mirroring tshark's habit of exiting 2 on harmless warnings.
func (b *Builder) Batch() error {
	args, err := b.args()
	if err != nil {
		return err
	}
	path, err := b.lookup()
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.Command(path, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("tshark: run: %w", err)
		}
		line, _ := bufio.NewReader(&stderr).ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			return fmt.Errorf("%w: %s", ErrProcessFailed, line)
		}
	}
	return nil
}
