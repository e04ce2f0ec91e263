package broker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyvernpos/pos-services/internal/comm"
	"github.com/wyvernpos/pos-services/internal/saleslog"
)

type memPublisher struct {
	subjects []string
	payloads [][]byte
}

func (m *memPublisher) Publish(subject string, data []byte) error {
	m.subjects = append(m.subjects, subject)
	m.payloads = append(m.payloads, data)
	return nil
}

var _ Publisher = (*memPublisher)(nil)

func TestPublishSaleCompleted(t *testing.T) {
	pub := &memPublisher{}
	b := &Broker{Conn: pub, TerminalID: "TERM-01"}

	b.PublishSaleCompleted(saleslog.SaleRecord{
		Timestamp:   time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		Method:      saleslog.MethodWyvern,
		CardID:      "04A1B2C3",
		TotalAmount: decimal.RequireFromString("50.00"),
		Items: []saleslog.Item{
			{Name: "Hot Drinks > Coffee > Latte", Price: decimal.RequireFromString("50.00")},
		},
	})

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, SaleSubject, pub.subjects[0])

	var msg comm.WSMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, "sale-completed", msg.Type)

	var sale comm.SaleCompleted
	require.NoError(t, json.Unmarshal(msg.Data, &sale))
	assert.Equal(t, "TERM-01", sale.TerminalID)
	assert.Equal(t, "wyvern_card_04A1B2C3", sale.PaymentMethod)
	assert.Equal(t, "50.00", sale.TotalAmount)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "50.00", sale.Items[0].Price)
}

func TestPublishHeartbeat(t *testing.T) {
	pub := &memPublisher{}
	b := &Broker{Conn: pub, TerminalID: "TERM-01"}

	b.PublishHeartbeat("instance-42")

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, HeartbeatSubject, pub.subjects[0])

	var msg comm.WSMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, "heartbeat", msg.Type)

	var hb comm.ServiceHeartbeat
	require.NoError(t, json.Unmarshal(msg.Data, &hb))
	assert.Equal(t, "instance-42", hb.ID)
	assert.False(t, hb.Timestamp.IsZero())
}

func TestRunHeartbeatStops(t *testing.T) {
	pub := &memPublisher{}
	b := &Broker{Conn: pub, TerminalID: "TERM-01"}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		b.RunHeartbeat("instance-42", 5*time.Millisecond, stop)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("heartbeat loop did not stop")
	}
	assert.NotEmpty(t, pub.subjects)
}
