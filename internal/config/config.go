// Package config loads capture profiles for the CLI using viper. A profile
// bundles everything one tshark run needs: the input source, filters,
// metadata white/blacklists and logging.
package config

import (
	"fmt"

	"sharkpipe/internal/log"
	"sharkpipe/pkg/tshark"
)

// Profile is the top-level configuration for one capture run.
type Profile struct {
	// Input sources: capture file by default, interfaces or pipes when
	// Live is set. Multiple inputs only with Live.
	Input []string `mapstructure:"input" yaml:"input"`
	Live  bool     `mapstructure:"live" yaml:"live"`

	CaptureFilter string `mapstructure:"capture_filter" yaml:"capture_filter,omitempty"`
	DisplayFilter string `mapstructure:"display_filter" yaml:"display_filter,omitempty"`

	// MetadataBlacklist drops fields after dissection; MetadataWhitelist
	// restricts dissection to the named fields (-e).
	MetadataBlacklist []string `mapstructure:"metadata_blacklist" yaml:"metadata_blacklist,omitempty"`
	MetadataWhitelist []string `mapstructure:"metadata_whitelist" yaml:"metadata_whitelist,omitempty"`

	DecodeAs          []string `mapstructure:"decode_as" yaml:"decode_as,omitempty"`
	Options           []string `mapstructure:"options" yaml:"options,omitempty"`
	DisabledProtocols []string `mapstructure:"disabled_protocols" yaml:"disabled_protocols,omitempty"`
	EnabledProtocols  []string `mapstructure:"enabled_protocols" yaml:"enabled_protocols,omitempty"`
	KeylogFile        string   `mapstructure:"keylog_file" yaml:"keylog_file,omitempty"`

	// OutputPath mirrors tshark -w: also write raw packets to a file.
	OutputPath string `mapstructure:"output_path" yaml:"output_path,omitempty"`

	// EnvPath overrides the PATH used to find the tshark executable.
	EnvPath string `mapstructure:"env_path" yaml:"env_path,omitempty"`

	// Count stops after this many packets; 0 reads to end of stream.
	Count int `mapstructure:"count" yaml:"count,omitempty"`

	Log *log.Config `mapstructure:"log" yaml:"log,omitempty"`
}

// Validate rejects combinations tshark would only fail on at runtime.
func (p *Profile) Validate() error {
	if len(p.Input) == 0 || p.Input[0] == "" {
		return fmt.Errorf("config: input is required")
	}
	if len(p.Input) > 1 && !p.Live {
		return fmt.Errorf("config: multiple inputs require live: true")
	}
	if p.CaptureFilter != "" && !p.Live {
		return fmt.Errorf("config: capture_filter only applies to live capture")
	}
	if p.Count < 0 {
		return fmt.Errorf("config: count must not be negative")
	}
	return nil
}

// Builder translates the profile into a tshark launch builder.
func (p *Profile) Builder() *tshark.Builder {
	b := tshark.NewBuilder(p.Input[0])
	for _, input := range p.Input[1:] {
		b.InputPath(input)
	}
	if p.Live {
		b.LiveCapture()
	}
	if p.CaptureFilter != "" {
		b.CaptureFilter(p.CaptureFilter)
	}
	if p.DisplayFilter != "" {
		b.DisplayFilter(p.DisplayFilter)
	}
	b.MetadataBlacklist(p.MetadataBlacklist...)
	b.MetadataWhitelist(p.MetadataWhitelist...)
	for _, expr := range p.DecodeAs {
		b.DecodeAs(expr)
	}
	for _, option := range p.Options {
		b.Option(option)
	}
	for _, protocol := range p.DisabledProtocols {
		b.DisableProtocol(protocol)
	}
	for _, protocol := range p.EnabledProtocols {
		b.EnableProtocol(protocol)
	}
	if p.KeylogFile != "" {
		b.KeylogFile(p.KeylogFile)
	}
	if p.OutputPath != "" {
		b.OutputPath(p.OutputPath)
	}
	if p.EnvPath != "" {
		b.EnvPath(p.EnvPath)
	}
	return b
}
