package tshark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	banner := `TShark (Wireshark) 4.0.6 (Git v4.0.6 packaged as 4.0.6-1~deb12u1).

Copyright 1998-2023 Gerald Combs <gerald@wireshark.org> and contributors.

Compiled (64-bit) using GCC 12.2.0, with GLib 2.74.6, with libpcap.
`
	info, err := parseVersion(banner)
	require.NoError(t, err)
	assert.Equal(t, "4.0.6", info.Version().String())
	assert.Equal(t, banner, info.Message())
}

func TestParseVersionSkipsNonVersionTokens(t *testing.T) {
	info, err := parseVersion("TShark (Wireshark) 3.6.2")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), info.Version().Major())
	assert.Equal(t, uint64(6), info.Version().Minor())
}

func TestParseVersionNoneFound(t *testing.T) {
	_, err := parseVersion("not a version banner at all")
	require.ErrorIs(t, err, ErrNoVersion)
}
