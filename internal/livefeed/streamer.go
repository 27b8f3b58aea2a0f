// Package livefeed broadcasts mission-planning progress to connected
// WebSocket clients: per-stage percent-complete events, diagnostics
// surfaced by the planning core, and the final assembled plan summary.
package livefeed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Streamer broadcasts plan-progress events to WebSocket clients.
type Streamer struct {
	mu        sync.RWMutex
	clients   map[*Client]bool
	broadcast chan *PlanEvent

	upgrader websocket.Upgrader
	logger   *logrus.Logger

	eventsSent     uint64
	clientsServed  uint64
	currentClients int
}

// Client represents a connected WebSocket client watching one or more
// mission plans.
type Client struct {
	conn      *websocket.Conn
	clearance int
	send      chan *PlanEvent
	id        string
}

// Stage tags which planning phase a PlanEvent reports on.
type Stage string

const (
	StageCoverageGrid  Stage = "coverage_grid"
	StageGlobalPlan    Stage = "global_plan"
	StageLocalPlan     Stage = "local_plan"
	StageSwarmPartition Stage = "swarm_partition"
	StageExport        Stage = "export"
	StageComplete      Stage = "complete"
	StageFailed        Stage = "failed"
)

// PlanEvent reports progress or a diagnostic for one mission's planning
// run, sent to every subscribed client at or above Clearance.
type PlanEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	MissionID    string    `json:"mission_id"`
	VehicleID    string    `json:"vehicle_id,omitempty"`
	Stage        Stage     `json:"stage"`
	PercentDone  float64   `json:"percent_done"`
	WaypointIdx  int       `json:"waypoint_index,omitempty"`
	WaypointTotal int      `json:"waypoint_total,omitempty"`
	Message      string    `json:"message,omitempty"`
	Clearance    int       `json:"clearance"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Diagnostic mirrors a planerr.Error surfaced to subscribers without
// exposing internal error types over the wire.
type Diagnostic struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Clearance tiers gate which events a client receives.
const (
	ClearancePublic    = 0
	ClearanceBasic     = 1
	ClearanceOperator  = 2
	ClearanceCommander = 3
	ClearanceAdmin     = 4
)

// NewStreamer builds a Streamer ready to accept WebSocket upgrades.
func NewStreamer() *Streamer {
	return &Streamer{
		clients:   make(map[*Client]bool),
		broadcast: make(chan *PlanEvent, 100),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logrus.New(),
	}
}

// HandleWebSocket upgrades an HTTP request to a WebSocket plan-progress
// subscription.
func (s *Streamer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Error("failed to upgrade websocket")
		return
	}

	clearance := ClearancePublic
	if token := r.Header.Get("X-Clearance-Token"); token != "" {
		clearance = s.validateClearance(token)
	}

	client := &Client{
		conn:      conn,
		clearance: clearance,
		send:      make(chan *PlanEvent, 50),
		id:        r.RemoteAddr,
	}

	s.RegisterClient(client)
	s.logger.WithFields(logrus.Fields{"client": client.id, "clearance": clearance}).Info("client connected")

	ctx, cancel := context.WithCancel(context.Background())
	go client.WritePump(ctx)
	go client.ReadPump(ctx, cancel, s)
}

// RegisterClient adds a new WebSocket client.
func (s *Streamer) RegisterClient(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
	s.clientsServed++
	s.currentClients++
}

// UnregisterClient removes a client and closes its send channel.
func (s *Streamer) UnregisterClient(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
		s.currentClients--
		s.logger.WithField("client", client.id).Info("client disconnected")
	}
}

// Publish enqueues a plan event for broadcast, dropping the oldest
// buffered event if the broadcast channel is full rather than blocking
// the planning goroutine.
func (s *Streamer) Publish(evt *PlanEvent) {
	select {
	case s.broadcast <- evt:
	default:
		select {
		case <-s.broadcast:
		default:
		}
		s.broadcast <- evt
	}
}

// Run drains the broadcast channel and fans events out to clients until
// ctx is cancelled.
func (s *Streamer) Run(ctx context.Context) error {
	s.logger.Info("livefeed streamer started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("livefeed streamer stopping")
			s.closeAllClients()
			return ctx.Err()
		case evt := <-s.broadcast:
			s.sendToClients(evt)
		}
	}
}

func (s *Streamer) sendToClients(evt *PlanEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.clearance < evt.Clearance {
			continue
		}
		select {
		case client.send <- evt:
			s.eventsSent++
		default:
		}
	}
}

func (s *Streamer) closeAllClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		if client.conn != nil {
			client.conn.Close()
		}
		close(client.send)
		delete(s.clients, client)
	}
}

// validateClearance maps an opaque bearer token to a clearance tier.
// internal/security.Gate performs the actual JWT verification for the
// HTTP admin API; this mapping is used only for the unauthenticated
// websocket's coarse-grained tiering.
func (s *Streamer) validateClearance(token string) int {
	switch token {
	case "admin":
		return ClearanceAdmin
	case "commander":
		return ClearanceCommander
	case "operator":
		return ClearanceOperator
	default:
		return ClearanceBasic
	}
}

// Stats reports current streaming counters.
func (s *Streamer) Stats() (clients int, sent uint64, served uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentClients, s.eventsSent, s.clientsServed
}

// WritePump sends queued events and periodic pings to the client.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump drains inbound frames (subscription changes); plan events are
// one-directional from server to client, so this mainly keeps the
// connection's pong deadline alive.
func (c *Client) ReadPump(ctx context.Context, cancel context.CancelFunc, s *Streamer) {
	defer func() {
		cancel()
		s.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.WithError(err).Error("websocket read error")
			}
			return
		}
	}
}
