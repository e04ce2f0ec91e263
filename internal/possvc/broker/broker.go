package broker

import (
	"encoding/json"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wyvernpos/pos-services/internal/comm"
	"github.com/wyvernpos/pos-services/internal/saleslog"
)

// SaleSubject carries completed-sale events to the kitchen service.
const SaleSubject = "pos.sale"

// HeartbeatSubject carries liveness pings from each service instance.
const HeartbeatSubject = "pos.heartbeat"

// Publisher is the message sink; *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type Broker struct {
	Conn       Publisher
	TerminalID string
}

func NewBroker(nc Publisher) *Broker {
	return &Broker{
		Conn:       nc,
		TerminalID: os.Getenv("TERMINAL_ID"),
	}
}

// PublishSaleCompleted announces one settled sale. Delivery is best-effort:
// the day log remains the durable record, the kitchen feed is advisory.
func (b *Broker) PublishSaleCompleted(rec saleslog.SaleRecord) {
	lines := make([]comm.SaleLine, 0, len(rec.Items))
	for _, item := range rec.Items {
		lines = append(lines, comm.SaleLine{
			Name:  item.Name,
			Price: item.Price.StringFixed(2),
		})
	}

	sale := comm.SaleCompleted{
		TerminalID:    b.TerminalID,
		Timestamp:     rec.Timestamp,
		PaymentMethod: rec.MethodKey(),
		TotalAmount:   rec.TotalAmount.StringFixed(2),
		Items:         lines,
	}

	data, err := json.Marshal(sale)
	if err != nil {
		log.Errorf("error [PublishSaleCompleted] marshaling SaleCompleted: %v", err)
		return
	}

	msg := &comm.WSMessage{
		Type: "sale-completed",
		Data: data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("error [PublishSaleCompleted] marshaling WSMessage: %v", err)
		return
	}

	if err := b.Conn.Publish(SaleSubject, payload); err != nil {
		log.Errorf("error publishing sale-completed for terminal %s: %v", b.TerminalID, err)
	}
}

// PublishHeartbeat announces this instance is alive.
func (b *Broker) PublishHeartbeat(instanceId string) {
	hb := comm.ServiceHeartbeat{
		ID:        instanceId,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(hb)
	if err != nil {
		log.Errorf("error [PublishHeartbeat] marshaling ServiceHeartbeat: %v", err)
		return
	}

	msg := &comm.WSMessage{
		Type: "heartbeat",
		Data: data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("error [PublishHeartbeat] marshaling WSMessage: %v", err)
		return
	}

	if err := b.Conn.Publish(HeartbeatSubject, payload); err != nil {
		log.Errorf("error publishing heartbeat for instance %s: %v", instanceId, err)
	}
}

// RunHeartbeat pings every interval until stop is closed.
func (b *Broker) RunHeartbeat(instanceId string, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.PublishHeartbeat(instanceId)
		}
	}
}
