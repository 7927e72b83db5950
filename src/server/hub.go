package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"crypto-indices/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// clientReply is a message addressed to a single client.
type clientReply struct {
	client *Client
	update *models.MIndexUpdate
}

// handleWebsockets is the main Hub loop; it alone touches the client map.
func (s *IndexServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.connections.Store(0)
			s.Metrics.wsConnections.Set(0)
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Store(int64(len(s.clients)))
			s.Metrics.wsConnections.Set(float64(len(s.clients)))

			// Send initial state on connect
			if initial := s.initialState(); initial != nil {
				client.send <- initial
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.connections.Store(int64(len(s.clients)))
			s.Metrics.wsConnections.Set(float64(len(s.clients)))

		case r := <-s.replies:
			if _, ok := s.clients[r.client]; ok {
				select {
				case r.client.send <- r.update:
				default:
				}
			}

		case message := <-s.broadcast:
			s.stateMutex.Lock()
			s.latestState = message
			s.stateMutex.Unlock()

			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.connections.Store(int64(len(s.clients)))
			s.Metrics.wsConnections.Set(float64(len(s.clients)))
		}
	}
}

// -----------------------------------------------------------------------------

// initialState is the last pushed update, or the provider's latest payload
// when nothing has been pushed through this server yet.
func (s *IndexServer) initialState() *models.MIndexUpdate {
	s.stateMutex.RLock()
	latest := s.latestState
	s.stateMutex.RUnlock()

	if latest != nil {
		return &models.MIndexUpdate{
			Type:       "INITIAL",
			TimePeriod: latest.TimePeriod,
			Payload:    latest.Payload,
			Timestamp:  latest.Timestamp,
		}
	}

	period, payload, updated := s.Provider.Latest()
	if payload == nil {
		return nil
	}
	return &models.MIndexUpdate{
		Type:       "INITIAL",
		TimePeriod: string(period),
		Payload:    payload,
		Timestamp:  updated.Unix(),
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues an update for every websocket client. It never blocks:
// when the queue is full the update is dropped.
func (s *IndexServer) Broadcast(update *models.MIndexUpdate) {
	if update == nil {
		return
	}
	select {
	case <-s.done:
	case s.broadcast <- update:
	default:
		s.Logger.Warning("Broadcast queue full, dropping %s update", update.TimePeriod)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *IndexServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MIndexUpdate, 16),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage answers {"command":"subscribe","timePeriod":...} with
// the cached payload of that period, if any.
func (s *IndexServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	period := models.ParseTimePeriod(cmd.TimePeriod)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	payload, ok := s.Provider.Cached(ctx, period)
	cancel()
	if !ok {
		return
	}

	response := &models.MIndexUpdate{
		Type:       "INITIAL",
		TimePeriod: string(period),
		Payload:    payload,
		Timestamp:  time.Now().UTC().Unix(),
	}

	// The hub owns client.send; hand the reply over instead of writing directly
	select {
	case s.replies <- clientReply{client: client, update: response}:
	case <-s.done:
	}
}
