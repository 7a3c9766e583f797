package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Rendezvous/internal/app"
	"github.com/dkeye/Rendezvous/internal/app/orch"
	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/core/coretest"
)

func setup(t *testing.T, ice []webrtc.ICEServer) (*orch.Orchestrator, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
		Policy:   app.DropPolicy{},
	}
	r := gin.New()
	(&Handlers{Orch: o, ICE: ice}).Register(r)
	return o, r
}

func get(t *testing.T, r http.Handler, path string, out any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestHealth(t *testing.T) {
	o, r := setup(t, nil)
	a, b := coretest.NewFakeConn("a"), coretest.NewFakeConn("b")
	o.OnConnect(a, nil)
	o.OnConnect(b, nil)
	_, _ = o.Join(a, "abc")

	var resp HealthResponse
	get(t, r, "/healthz", &resp)
	assert.Equal(t, HealthResponse{Status: "ok", Connections: 2, Rooms: 1}, resp)
}

func TestRooms(t *testing.T) {
	o, r := setup(t, nil)

	var empty map[string]any
	get(t, r, "/api/rooms", &empty)
	assert.Equal(t, []any{}, empty["rooms"])

	for _, id := range []string{"a", "b", "c"} {
		c := coretest.NewFakeConn(id)
		o.OnConnect(c, nil)
		room := "zeta"
		if id == "c" {
			room = "alpha"
		}
		_, _ = o.Join(c, room)
	}

	var resp RoomsResponse
	get(t, r, "/api/rooms", &resp)
	assert.Equal(t, []core.RoomInfo{
		{Name: "alpha", MemberCount: 1},
		{Name: "zeta", MemberCount: 2},
	}, resp.Rooms)
}

func TestICE(t *testing.T) {
	_, r := setup(t, []webrtc.ICEServer{
		{URLs: []string{"stun:stun.example.org:3478"}},
		{URLs: []string{"turn:turn.example.org"}, Username: "u", Credential: "p"},
	})

	var resp map[string][]map[string]any
	get(t, r, "/api/ice", &resp)
	require.Len(t, resp["iceServers"], 2)
	assert.Equal(t, []any{"stun:stun.example.org:3478"}, resp["iceServers"][0]["urls"])
	assert.NotContains(t, resp["iceServers"][0], "credential")
	assert.Equal(t, "u", resp["iceServers"][1]["username"])
	assert.Equal(t, "p", resp["iceServers"][1]["credential"])
}
