package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wyvernpos/pos-services/internal/comm"
)

const OrdersCollection = "kitchen_orders"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// ErrOrderNotFound indicates the ticket id is unknown or already expired.
var ErrOrderNotFound = errors.New("kitchen order not found")

// Orders captures the kitchen ticket persistence operations.
type Orders interface {
	Create(ctx context.Context, doc OrderDoc) error
	SetStatus(ctx context.Context, orderID, status string) error
	ListOpen(ctx context.Context) ([]OrderDoc, error)
}

// Ensure OrderStore satisfies the Orders interface at compile time.
var _ Orders = (*OrderStore)(nil)

// OrderDoc is one kitchen ticket. ExpiresAt drives the collection's TTL
// index, so closed tickets clean themselves up.
type OrderDoc struct {
	OrderID    string          `bson:"order_id" json:"order_id"`
	TerminalID string          `bson:"terminal_id" json:"terminal_id"`
	Status     string          `bson:"status" json:"status"`
	Items      []comm.SaleLine `bson:"items" json:"items"`
	CreatedAt  time.Time       `bson:"created_at" json:"created_at"`
	ExpiresAt  time.Time       `bson:"expires_at" json:"-"`
}

type OrderStore struct {
	coll *mongo.Collection
	ttl  time.Duration
}

func NewOrderStore(db *mongo.Database, ttl time.Duration) *OrderStore {
	return &OrderStore{coll: db.Collection(OrdersCollection), ttl: ttl}
}

func (s *OrderStore) Create(ctx context.Context, doc OrderDoc) error {
	doc.ExpiresAt = doc.CreatedAt.Add(s.ttl)
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert kitchen order: %w", err)
	}
	return nil
}

func (s *OrderStore) SetStatus(ctx context.Context, orderID, status string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"order_id": orderID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("update kitchen order %s: %w", orderID, err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListOpen returns pending tickets oldest first, the order the kitchen
// works them.
func (s *OrderStore) ListOpen(ctx context.Context) ([]OrderDoc, error) {
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cur, err := s.coll.Find(ctx, bson.M{"status": StatusPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("find pending kitchen orders: %w", err)
	}
	defer cur.Close(ctx)

	var docs []OrderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode kitchen orders: %w", err)
	}
	return docs, nil
}
