package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/project"
)

// WebSocket message types for the canvas protocol
const (
	// Client -> Server messages
	MsgTypeGeometryPreview = "geometry:preview"
	MsgTypeComponentUpdate = "component:update"
	MsgTypeSubscribe       = "project:subscribe"
	MsgTypeUnsubscribe     = "project:unsubscribe"
	MsgTypePing            = "ping"

	// Server -> Client messages
	MsgTypeAck            = "ack"
	MsgTypeGeometryResult = "geometry:result"
	MsgTypeComponentState = "component:state"
	MsgTypeProjectChanged = "project:changed"
	MsgTypeError          = "error"
	MsgTypePong           = "pong"
)

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Subscription payload
type WSSubscribePayload struct {
	ProjectID string `json:"projectId"`
}

// Component update payload, a live-drag variant of the REST patch
type WSComponentUpdatePayload struct {
	ProjectID   string                 `json:"projectId"`
	ComponentID string                 `json:"componentId"`
	Patch       project.ComponentPatch `json:"patch"`
}

// Project change event pushed to subscribers
type WSProjectEvent struct {
	ProjectID string      `json:"projectId"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
}

// WebSocket error response
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// wsClient is one connected canvas. Writes are serialized because
// broadcasts and read-loop replies come from different goroutines.
type wsClient struct {
	conn     *websocket.Conn
	writeMu  sync.Mutex
	projects map[string]bool
}

func (cl *wsClient) send(msg WSMessage) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	return cl.conn.WriteJSON(msg)
}

// WebSocketHandler manages WebSocket connections for the live canvas
type WebSocketHandler struct {
	projects   *project.Manager
	opts       geometry.Options
	upgrader   websocket.Upgrader
	maxMessage int64

	mu      sync.RWMutex
	clients map[*wsClient]bool
}

// NewWebSocketHandler creates a new canvas WebSocket handler. maxMessage
// caps inbound frame size in bytes; zero means no limit.
func NewWebSocketHandler(projects *project.Manager, opts geometry.Options, maxMessage int64) *WebSocketHandler {
	return &WebSocketHandler{
		projects:   projects,
		opts:       opts,
		maxMessage: maxMessage,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  64 * 1024, // 64KB read buffer
			WriteBufferSize: 64 * 1024, // 64KB write buffer
		},
		clients: make(map[*wsClient]bool),
	}
}

// NotifyProject pushes a change event to every client subscribed to the
// project. Implements Broadcaster for the REST handlers.
func (wsh *WebSocketHandler) NotifyProject(projectID, event string, payload interface{}) {
	msg := WSMessage{
		Type:      MsgTypeProjectChanged,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSProjectEvent{
			ProjectID: projectID,
			Event:     event,
			Data:      payload,
		}),
	}

	wsh.mu.RLock()
	defer wsh.mu.RUnlock()
	for cl := range wsh.clients {
		if cl.projects[projectID] {
			if err := cl.send(msg); err != nil {
				fmt.Printf("[WebSocket] Broadcast failed: %v\n", err)
			}
		}
	}
}

// HandleWS upgrades the HTTP connection and runs the canvas protocol
func (wsh *WebSocketHandler) HandleWS(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	if wsh.maxMessage > 0 {
		ws.SetReadLimit(wsh.maxMessage)
	}

	client := &wsClient{
		conn:     ws,
		projects: make(map[string]bool),
	}
	wsh.mu.Lock()
	wsh.clients[client] = true
	wsh.mu.Unlock()
	defer func() {
		wsh.mu.Lock()
		delete(wsh.clients, client)
		wsh.mu.Unlock()
	}()

	fmt.Println("[WebSocket] Canvas client connected")

	// Send welcome message
	wsh.sendMessage(client, WSMessage{
		Type:      "connected",
		Timestamp: time.Now().UnixMilli(),
	})

	// Main message loop
	for {
		var msg WSMessage
		err := ws.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("[WebSocket] Connection error: %v\n", err)
			}
			break
		}

		// Handle message based on type
		switch msg.Type {
		case MsgTypePing:
			// Respond with pong to keep connection alive
			wsh.sendMessage(client, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		case MsgTypeSubscribe:
			wsh.handleSubscribe(client, msg, true)
		case MsgTypeUnsubscribe:
			wsh.handleSubscribe(client, msg, false)
		case MsgTypeGeometryPreview:
			wsh.handleGeometryPreview(client, msg)
		case MsgTypeComponentUpdate:
			wsh.handleComponentUpdate(client, msg)
		default:
			wsh.sendError(client, "Unknown message type: "+msg.Type, "INVALID_TYPE")
		}
	}

	fmt.Println("[WebSocket] Canvas client disconnected")
	return nil
}

// handleSubscribe adds or removes a project subscription
func (wsh *WebSocketHandler) handleSubscribe(client *wsClient, msg WSMessage, subscribe bool) {
	var payload WSSubscribePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		wsh.sendError(client, "Invalid subscribe payload: "+err.Error(), "INVALID_PAYLOAD")
		return
	}
	if payload.ProjectID == "" {
		wsh.sendError(client, "projectId is required", "INVALID_PAYLOAD")
		return
	}

	wsh.mu.Lock()
	if subscribe {
		client.projects[payload.ProjectID] = true
	} else {
		delete(client.projects, payload.ProjectID)
	}
	wsh.mu.Unlock()

	wsh.sendMessage(client, WSMessage{
		Type:      MsgTypeAck,
		ID:        msg.ID,
		Timestamp: time.Now().UnixMilli(),
	})
}

// handleGeometryPreview recomputes a drawing bundle for an in-flight drag.
// No project state is touched; the result goes only to the asking client.
func (wsh *WebSocketHandler) handleGeometryPreview(client *wsClient, msg WSMessage) {
	var payload previewGeometryRequest
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		wsh.sendError(client, "Invalid preview payload: "+err.Error(), "INVALID_PAYLOAD")
		return
	}

	if !models.IsConveyor(payload.Type) {
		wsh.sendError(client, "Type does not carry belt geometry: "+string(payload.Type), "INVALID_TYPE")
		return
	}
	if minDrag := wsh.opts.MinDrag(); payload.dragLength() < minDrag {
		wsh.sendError(client, fmt.Sprintf("Drag length %.1f below minimum %.0f",
			payload.dragLength(), minDrag), "DRAG_TOO_SHORT")
		return
	}

	kind, _ := models.KindForType(payload.Type)
	seg, err := geometry.ResolveSegment(payload.Geometry, payload.Properties, kind)
	if err != nil {
		wsh.sendError(client, "Geometry rejected: "+err.Error(), "VALIDATION_ERROR")
		return
	}

	opts := wsh.opts
	opts.Accessories = payload.Accessories
	bundle, err := geometry.BuildSegment(seg, payload.Style, opts)
	if err != nil {
		wsh.sendError(client, "Geometry rejected: "+err.Error(), "VALIDATION_ERROR")
		return
	}

	result := previewGeometryResponse{Bundle: bundle, Kind: kind}
	if curved, ok := seg.(geometry.Curved); ok {
		result.Clamped = curved.Clamped()
	}

	wsh.sendMessage(client, WSMessage{
		Type:      MsgTypeGeometryResult,
		ID:        msg.ID,
		Timestamp: time.Now().UnixMilli(),
		Payload:   mustJSON(result),
	})
}

// handleComponentUpdate applies a patch through the project manager and
// fans the new component state out to subscribers
func (wsh *WebSocketHandler) handleComponentUpdate(client *wsClient, msg WSMessage) {
	var payload WSComponentUpdatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		wsh.sendError(client, "Invalid update payload: "+err.Error(), "INVALID_PAYLOAD")
		return
	}
	if payload.ProjectID == "" || payload.ComponentID == "" {
		wsh.sendError(client, "projectId and componentId are required", "INVALID_PAYLOAD")
		return
	}

	comp, err := wsh.projects.UpdateComponent(payload.ProjectID, payload.ComponentID, payload.Patch)
	if err != nil {
		wsh.sendError(client, "Update rejected: "+err.Error(), "UPDATE_REJECTED")
		return
	}

	wsh.sendMessage(client, WSMessage{
		Type:      MsgTypeComponentState,
		ID:        msg.ID,
		Timestamp: time.Now().UnixMilli(),
		Payload:   mustJSON(comp),
	})

	wsh.NotifyProject(payload.ProjectID, "component:updated", comp)
}

// Helper methods

func (wsh *WebSocketHandler) sendMessage(client *wsClient, msg WSMessage) {
	if err := client.send(msg); err != nil {
		fmt.Printf("[WebSocket] Failed to send message: %v\n", err)
	}
}

func (wsh *WebSocketHandler) sendError(client *wsClient, message, code string) {
	wsh.sendMessage(client, WSMessage{
		Type:      MsgTypeError,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSErrorResponse{
			Type:    MsgTypeError,
			Message: message,
			Code:    code,
		}),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
