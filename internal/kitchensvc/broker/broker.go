package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/wyvernpos/pos-services/internal/comm"
	"github.com/wyvernpos/pos-services/internal/kitchensvc/store"
)

type Broker struct {
	Conn      *nats.Conn
	Orders    store.Orders
	Broadcast func(*comm.WSMessage)
}

func NewBroker(conn *nats.Conn, orders store.Orders, broadcast func(*comm.WSMessage)) *Broker {
	return &Broker{
		Conn:      conn,
		Orders:    orders,
		Broadcast: broadcast,
	}
}

// Subscribe consumes completed sales from the terminals.
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	err := json.Unmarshal(msgNats.Data, &message)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch message.Type {
	case "sale-completed":
		b.handleSaleCompleted(message)
	default:
		log.Warnf("Unknown message type %s", message.Type)
	}
}

// handleSaleCompleted opens one pending ticket per settled sale and pushes
// it to every connected display.
func (b *Broker) handleSaleCompleted(m *comm.WSMessage) {
	sale := comm.SaleCompleted{}
	if err := json.Unmarshal(m.Data, &sale); err != nil {
		log.Errorf("Error unmarshaling SaleCompleted: %v", err)
		return
	}
	if len(sale.Items) == 0 {
		return
	}

	doc := store.OrderDoc{
		OrderID:    uuid.New().String(),
		TerminalID: sale.TerminalID,
		Status:     store.StatusPending,
		Items:      sale.Items,
		CreatedAt:  time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := b.Orders.Create(ctx, doc); err != nil {
		log.Errorf("Error creating kitchen order: %v", err)
		return
	}

	order := comm.KitchenOrder{
		OrderID:    doc.OrderID,
		TerminalID: doc.TerminalID,
		Status:     doc.Status,
		Items:      doc.Items,
		CreatedAt:  doc.CreatedAt,
	}
	data, err := json.Marshal(order)
	if err != nil {
		log.Errorf("Error marshaling KitchenOrder: %v", err)
		return
	}

	b.Broadcast(&comm.WSMessage{Type: "order-new", Data: data})
	log.Infof("kitchen order %s opened for terminal %s", doc.OrderID, doc.TerminalID)
}
