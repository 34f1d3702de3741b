package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidates_BareHostTriesWSSThenWS(t *testing.T) {
	cands, err := Candidates("archipelago.gg")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "wss://archipelago.gg:38281", cands[0])
	assert.Equal(t, "ws://archipelago.gg:38281", cands[1])
}

func TestCandidates_HostWithPortIsPreserved(t *testing.T) {
	cands, err := Candidates("archipelago.gg:12345")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "wss://archipelago.gg:12345", cands[0])
	assert.Equal(t, "ws://archipelago.gg:12345", cands[1])
}

func TestCandidates_ExplicitSchemeIsSingleCandidate(t *testing.T) {
	cands, err := Candidates("ws://archipelago.gg:38281")
	require.NoError(t, err)
	require.Equal(t, []string{"ws://archipelago.gg:38281"}, cands)
}

func TestCandidates_ExplicitSchemeFillsDefaultPort(t *testing.T) {
	cands, err := Candidates("wss://archipelago.gg")
	require.NoError(t, err)
	require.Equal(t, []string{"wss://archipelago.gg:38281"}, cands)
}

func TestCandidates_RejectsUnknownScheme(t *testing.T) {
	_, err := Candidates("http://archipelago.gg")
	assert.Error(t, err)
}
