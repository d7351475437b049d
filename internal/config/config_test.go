package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
input:
  - /tmp/my.pcap
display_filter: udp.port == 53
metadata_blacklist:
  - ip.src
  - ip.dst
decode_as:
  - tcp.port==8080,http2
count: 10
log:
  level: debug
  appenders:
    - type: console
    - type: file
      file:
        filename: /tmp/sharkpipe.log
        max_size: 16
`)

	profile, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/my.pcap"}, profile.Input)
	assert.False(t, profile.Live)
	assert.Equal(t, "udp.port == 53", profile.DisplayFilter)
	assert.Equal(t, []string{"ip.src", "ip.dst"}, profile.MetadataBlacklist)
	assert.Equal(t, []string{"tcp.port==8080,http2"}, profile.DecodeAs)
	assert.Equal(t, 10, profile.Count)

	require.NotNil(t, profile.Log)
	assert.Equal(t, "debug", profile.Log.Level)
	require.Len(t, profile.Log.Appenders, 2)
	require.NotNil(t, profile.Log.Appenders[1].File)
	assert.Equal(t, "/tmp/sharkpipe.log", profile.Log.Appenders[1].File.Filename)
	assert.Equal(t, 16, profile.Log.Appenders[1].File.MaxSize)
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadProfileEnvOverride(t *testing.T) {
	t.Setenv("SHARKPIPE_DISPLAY_FILTER", "tcp")
	path := writeProfile(t, `
input:
  - eth0
live: true
display_filter: udp
`)

	profile, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp", profile.DisplayFilter)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr string
	}{
		{
			name:    "missing input",
			profile: Profile{},
			wantErr: "input is required",
		},
		{
			name:    "multiple inputs without live",
			profile: Profile{Input: []string{"a.pcap", "b.pcap"}},
			wantErr: "multiple inputs require live",
		},
		{
			name:    "capture filter without live",
			profile: Profile{Input: []string{"a.pcap"}, CaptureFilter: "port 53"},
			wantErr: "capture_filter only applies to live",
		},
		{
			name:    "negative count",
			profile: Profile{Input: []string{"a.pcap"}, Count: -1},
			wantErr: "count must not be negative",
		},
		{
			name:    "live with filters",
			profile: Profile{Input: []string{"eth0", "eth1"}, Live: true, CaptureFilter: "port 53"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProfileBuilderRoundTrip(t *testing.T) {
	profile := Profile{
		Input:             []string{"eth0", "eth1"},
		Live:              true,
		CaptureFilter:     "port 53",
		DisplayFilter:     "dns",
		MetadataWhitelist: []string{"dns.qry.name"},
		Options:           []string{"ip.defragment:false"},
	}
	require.NoError(t, profile.Validate())
	assert.NotNil(t, profile.Builder())
}
