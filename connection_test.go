package archipelago

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionState_String(t *testing.T) {
	assert.Equal(t, "Connecting", StateConnecting.String())
	assert.Equal(t, "Connected", StateConnected.String())
	assert.Equal(t, "Disconnected", StateDisconnected.String())
}

func TestConnectionErrorFromCode_KnownAndUnknown(t *testing.T) {
	assert.Contains(t, connectionErrorFromCode("InvalidPassword"), "password")
	assert.Equal(t, "SomeFutureCode", connectionErrorFromCode("SomeFutureCode"))
}

// fakeArchipelagoServer runs the minimum handshake: RoomInfo, then
// DataPackage in reply to GetDataPackage, then Connected in reply to
// Connect.
func fakeArchipelagoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		roomInfo := map[string]any{
			"cmd": "RoomInfo", "version": map[string]any{"major": 0, "minor": 6, "build": 0, "class": "Version"},
			"generator_version": map[string]any{"major": 0, "minor": 6, "build": 0, "class": "Version"},
			"tags":              []string{}, "password": false,
			"permissions":            map[string]any{"release": 1, "collect": 1, "remaining": 0},
			"hint_cost":              10,
			"location_check_points":  1,
			"games":                  []string{"Clique"},
			"datapackage_checksums":  map[string]string{"Clique": "cs1"},
			"seed_name":              "seed1",
			"time":                   1.0,
		}
		if err := conn.WriteJSON([]any{roomInfo}); err != nil {
			return
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var batch []map[string]any
			if err := json.Unmarshal(data, &batch); err != nil || len(batch) == 0 {
				continue
			}
			switch batch[0]["cmd"] {
			case "GetDataPackage":
				dp := map[string]any{
					"cmd": "DataPackage",
					"data": map[string]any{
						"games": map[string]any{
							"Clique": map[string]any{
								"item_name_to_id":     map[string]int64{"Sword": 1},
								"location_name_to_id": map[string]int64{"Start": 100},
								"checksum":            "cs1",
							},
						},
					},
				}
				_ = conn.WriteJSON([]any{dp})
			case "Connect":
				connected := map[string]any{
					"cmd": "Connected", "team": 0, "slot": 1,
					"players":           []map[string]any{{"team": 0, "slot": 1, "alias": "Alice", "name": "alice"}},
					"missing_locations": []int64{100},
					"checked_locations": []int64{},
					"slot_data":         map[string]any{},
					"slot_info": map[string]any{
						"1": map[string]any{"name": "alice", "game": "Clique", "type": 1, "group_members": []int{}},
					},
					"hint_points": 0,
				}
				_ = conn.WriteJSON([]any{connected})
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConnection_HandshakeReachesConnected(t *testing.T) {
	srv := fakeArchipelagoServer(t)
	addr := "ws://" + strings.TrimPrefix(srv.URL, "http://")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := log.New(io.Discard, "", 0)
	opts := ConnectionOptions{Cache: NewCache(t.TempDir(), logger)}
	conn := Connect(ctx, addr, "Clique", "Alice", opts, nil, logger)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn.Update()
		if conn.IsConnected() || conn.IsDisconnected() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.True(t, conn.IsConnected(), "connection error: %v", conn.Err())
	client, ok := conn.Client()
	require.True(t, ok)
	assert.Equal(t, "Alice", client.ThisPlayer().Alias)
	assert.Equal(t, "seed1", client.SeedName())
	assert.Equal(t, "Clique", client.ThisGame().Name)
}

func TestConnect_EmptyGameWithoutSpecialTagIsFatalArgumentError(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	opts := ConnectionOptions{Cache: NewCache(t.TempDir(), logger)}

	conn := Connect(context.Background(), "ws://127.0.0.1:1", "", "Alice", opts, nil, logger)

	require.True(t, conn.IsDisconnected())
	var ae *ArgumentError
	require.ErrorAs(t, conn.Err(), &ae)
	assert.Equal(t, ErrMissingGame, ae.Kind)
}

// wrongFirstMessageServer sends a Print where the handshake expects RoomInfo.
func wrongFirstMessageServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON([]any{map[string]any{"cmd": "Print", "text": "hello"}})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConnection_UnexpectedHandshakeMessageIsFatalProtocolError(t *testing.T) {
	srv := wrongFirstMessageServer(t)
	addr := "ws://" + strings.TrimPrefix(srv.URL, "http://")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := log.New(io.Discard, "", 0)
	opts := ConnectionOptions{Cache: NewCache(t.TempDir(), logger)}
	conn := Connect(ctx, addr, "Clique", "Alice", opts, nil, logger)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn.Update()
		if conn.IsDisconnected() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.True(t, conn.IsDisconnected())
	var pe *ProtocolError
	require.ErrorAs(t, conn.Err(), &pe)
	assert.Equal(t, ErrUnexpectedResponse, pe.Kind)
}
