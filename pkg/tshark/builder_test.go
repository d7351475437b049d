package tshark

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempCapture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.pcap")
	require.NoError(t, os.WriteFile(path, []byte{0xd4, 0xc3, 0xb2, 0xa1}, 0o644))
	return path
}

func TestBuilderArgsFileInput(t *testing.T) {
	input := tempCapture(t)
	args, err := NewBuilder(input).args()
	require.NoError(t, err)
	assert.Equal(t, []string{"-r", input, "-n", "-Q"}, args)
}

func TestBuilderArgsMissingInputFile(t *testing.T) {
	_, err := NewBuilder(filepath.Join(t.TempDir(), "absent.pcap")).args()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuilderArgsNoInput(t *testing.T) {
	_, err := NewBuilder("").args()
	require.ErrorIs(t, err, ErrNoInput)
}

func TestBuilderArgsMultipleFilesRefused(t *testing.T) {
	_, err := NewBuilder("a.pcap").InputPath("b.pcap").args()
	require.ErrorIs(t, err, ErrMultipleInputs)
}

func TestBuilderArgsLiveMultipleInterfaces(t *testing.T) {
	args, err := NewBuilder("eth0").InputPath("eth1").LiveCapture().args()
	require.NoError(t, err)
	assert.Equal(t, []string{"-i", "eth0", "-i", "eth1", "-n", "-Q"}, args)
}

func TestBuilderArgsCaptureFilterOnlyWhenLive(t *testing.T) {
	input := tempCapture(t)
	args, err := NewBuilder(input).CaptureFilter("port 53").args()
	require.NoError(t, err)
	assert.NotContains(t, args, "-f")

	args, err = NewBuilder("eth0").LiveCapture().CaptureFilter("port 53").args()
	require.NoError(t, err)
	assert.Equal(t, []string{"-i", "eth0", "-n", "-Q", "-f", "port 53"}, args)
}

func TestBuilderArgsAllOptions(t *testing.T) {
	input := tempCapture(t)
	args, err := NewBuilder(input).
		DisplayFilter("udp.port == 53").
		OutputPath("/tmp/out.pcap").
		DecodeAs("tcp.port==8080,http2").
		Option("ip.defragment:false").
		KeylogFile("/tmp/keys.txt").
		MetadataWhitelist("ip.src", "ip.dst").
		DisableProtocol("t38").
		EnableProtocol("eth").
		args()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"-r", input, "-n", "-Q",
		"-w", "/tmp/out.pcap",
		"-Y", "udp.port == 53",
		"-d", "tcp.port==8080,http2",
		"-o", "ip.defragment:false",
		"-o", "tls.keylog_file:/tmp/keys.txt",
		"-e", "ip.src",
		"-e", "ip.dst",
		"--disable-protocol", "t38",
		"--enable-protocol", "eth",
	}, args)
}

func TestBuilderLookupEnvPath(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, executable)
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755))

	path, err := NewBuilder("in.pcap").EnvPath(dir).lookup()
	require.NoError(t, err)
	assert.Equal(t, fake, path)
}

func TestBuilderLookupEnvPathMiss(t *testing.T) {
	_, err := NewBuilder("in.pcap").EnvPath(t.TempDir()).lookup()
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBuilderSpawnMissingExecutable(t *testing.T) {
	input := tempCapture(t)
	_, err := NewBuilder(input).EnvPath(t.TempDir()).Spawn()
	require.ErrorIs(t, err, ErrNotFound)
}
