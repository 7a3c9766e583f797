package http

import (
	"net/http"

	"github.com/dkeye/Rendezvous/internal/app/orch"
	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
)

// Handlers serves the read-only diagnostics endpoints.
type Handlers struct {
	Orch *orch.Orchestrator
	ICE  []webrtc.ICEServer
}

type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
}

type RoomsResponse struct {
	Rooms []core.RoomInfo `json:"rooms"`
}

type ICEResponse struct {
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/healthz", h.handleHealth)

	api := r.Group("/api")
	api.GET("/rooms", h.handleRooms)
	api.GET("/ice", h.handleICE)
}

func (h *Handlers) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Connections: h.Orch.Registry.Len(),
		Rooms:       len(h.Orch.Rooms.List()),
	})
}

func (h *Handlers) handleRooms(c *gin.Context) {
	rooms := h.Orch.Rooms.List()
	if rooms == nil {
		rooms = []core.RoomInfo{}
	}
	c.JSON(http.StatusOK, RoomsResponse{Rooms: rooms})
}

func (h *Handlers) handleICE(c *gin.Context) {
	ice := h.ICE
	if ice == nil {
		ice = []webrtc.ICEServer{}
	}
	c.JSON(http.StatusOK, ICEResponse{ICEServers: ice})
}
