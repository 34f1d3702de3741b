package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeClientMessage_WrapsInSingleElementArray(t *testing.T) {
	b, err := EncodeClientMessage(NewSay("hi"))
	require.NoError(t, err)

	var arr []map[string]any
	require.NoError(t, json.Unmarshal(b, &arr))
	require.Len(t, arr, 1)
	assert.Equal(t, "Say", arr[0]["cmd"])
	assert.Equal(t, "hi", arr[0]["text"])
}

func TestDecodeServerMessages_DecodesMixedBatchInOrder(t *testing.T) {
	frame := []byte(`[
		{"cmd":"RoomInfo","version":{"major":0,"minor":6,"build":0,"class":"Version"},"generator_version":{"major":0,"minor":6,"build":0,"class":"Version"},"tags":["AP"],"password":false,"permissions":{"release":1,"collect":1,"remaining":0},"hint_cost":10,"location_check_points":1,"games":["Game"],"datapackage_checksums":{"Game":"abc"},"seed_name":"seed","time":1.0},
		{"cmd":"Print","text":"hello"},
		{"cmd":"Bounced","games":["Game"],"slots":[1],"tags":["DeathLink"],"data":{"time":1.0,"source":"p1"}}
	]`)

	msgs, err := DecodeServerMessages(frame)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, KindRoomInfo, msgs[0].Kind)
	ri, ok := msgs[0].Payload.(RoomInfo)
	require.True(t, ok)
	assert.Equal(t, "seed", ri.SeedName)

	assert.Equal(t, KindPrint, msgs[1].Kind)
	p, ok := msgs[1].Payload.(Print)
	require.True(t, ok)
	assert.Equal(t, "hello", p.Text)

	assert.Equal(t, KindBounced, msgs[2].Kind)
	b, ok := msgs[2].Payload.(Bounced)
	require.True(t, ok)
	assert.True(t, HasTag(b.Tags, DeathLinkTag))
}

func TestDecodeServerMessages_SkipsUnknownButReturnsKnown(t *testing.T) {
	frame := []byte(`[{"cmd":"Print","text":"a"},{"cmd":"NotARealCommand"},{"cmd":"Print","text":"b"}]`)

	msgs, err := DecodeServerMessages(frame)
	require.Error(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].Payload.(Print).Text)
	assert.Equal(t, "b", msgs[1].Payload.(Print).Text)

	var unk *UnknownCommandError
	assert.ErrorAs(t, err, &unk)
}

func TestDecodeServerMessages_InvalidFrameIsAnError(t *testing.T) {
	_, err := DecodeServerMessages([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewConnect_SetsCmdAndVersion(t *testing.T) {
	pw := "secret"
	c := NewConnect(&pw, "Game", "Slot", uint8(ItemsHandlingOtherWorlds), []string{"Tracker"}, true)
	assert.Equal(t, "Connect", c.Cmd)
	assert.Equal(t, Version, c.Version)
	assert.Equal(t, &pw, c.Password)
}
