package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/wyvernpos/pos-services/internal/comm"
	"github.com/wyvernpos/pos-services/internal/kitchensvc/store"
)

// client wraps one display connection. gorilla/websocket allows a single
// concurrent writer per conn, so every write goes through mu.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(m *comm.WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(m)
}

type Ws struct {
	connMap sync.Map // socketId -> *client
	Orders  store.Orders
}

func NewWs(orders store.Orders) *Ws {
	return &Ws{Orders: orders}
}

// handle socket message from kitchen display clients
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "list_orders":
		s.handleListOrders(socketId)
	case "complete_order":
		s.handleStatusChange(socketId, message, store.StatusCompleted)
	case "reopen_order":
		s.handleStatusChange(socketId, message, store.StatusPending)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) handleListOrders(socketId string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	docs, err := s.Orders.ListOpen(ctx)
	if err != nil {
		log.Errorf("Error listing open kitchen orders: %v", err)
		return
	}

	data, err := json.Marshal(docs)
	if err != nil {
		log.Errorf("Error marshaling kitchen orders: %v", err)
		return
	}

	s.Send(socketId, &comm.WSMessage{Type: "orders", Data: data, SocketId: socketId})
}

func (s *Ws) handleStatusChange(socketId string, msg *comm.WSMessage, status string) {
	var req comm.OrderStatusReq
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("Error: malformed order status payload %s", err)
		return
	}
	if req.OrderID == "" {
		log.Error("Invalid order status payload: missing order_id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Orders.SetStatus(ctx, req.OrderID, status); err != nil {
		log.Errorf("Error updating kitchen order %s: %v", req.OrderID, err)
		return
	}

	update, err := json.Marshal(comm.OrderStatusReq{OrderID: req.OrderID, Status: status})
	if err != nil {
		log.Errorf("Error marshaling order update: %v", err)
		return
	}

	// every display sees the ticket move
	s.Broadcast(&comm.WSMessage{Type: "order-updated", Data: update})
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, &client{conn: conn})
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return c.(*client).conn, true
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
}

func (s *Ws) Send(socketId string, m *comm.WSMessage) {
	if c, ok := s.connMap.Load(socketId); ok {
		if err := c.(*client).writeJSON(m); err != nil {
			log.Errorf("Error sending to socket %s: %v", socketId, err)
		}
	}
}

// Broadcast pushes a message to every connected kitchen display.
func (s *Ws) Broadcast(m *comm.WSMessage) {
	s.connMap.Range(func(key, value interface{}) bool {
		if err := value.(*client).writeJSON(m); err != nil {
			log.Errorf("Error broadcasting to socket %v: %v", key, err)
		}
		return true
	})
}
