package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	PaymentNotificationColName = "payment_notifications"
	notificationRetention      = 90 * 24 * time.Hour
)

// PaymentNotification is an audit record of one gateway callback.
type PaymentNotification struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID           string             `bson:"order_id" json:"order_id"`
	TransactionStatus string             `bson:"transaction_status" json:"transaction_status"`
	FraudStatus       string             `bson:"fraud_status,omitempty" json:"fraud_status,omitempty"`
	Outcome           string             `bson:"outcome" json:"outcome"`
	Changed           bool               `bson:"changed" json:"changed"`
	Error             string             `bson:"error,omitempty" json:"error,omitempty"`
	Payload           bson.M             `bson:"payload" json:"payload"`
	ReceivedAt        time.Time          `bson:"received_at" json:"received_at"`
	ExpiresAt         time.Time          `bson:"expires_at" json:"-"`
}

type PaymentNotificationRepo interface {
	EnsureIndexes(ctx context.Context) error
	LogPaymentNotification(ctx context.Context, n *PaymentNotification) error
	ListPaymentNotifications(ctx context.Context, orderID string, limit int) ([]*PaymentNotification, error)
}

// EnsureIndexes creates the TTL and lookup indexes of the notification log.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, PaymentNotificationColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(0).
				SetName("expires_at_ttl"),
		},
		{
			Keys: bson.D{
				{Key: "order_id", Value: 1},
				{Key: "received_at", Value: -1},
			},
			Options: options.Index().SetName("order_received_at_idx"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating indexes: %w", err)
	}
	favs, err := mdb.GetCollection(ctx, FavouriteColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	_, err = favs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_id_unique"),
	})
	if err != nil {
		return fmt.Errorf("error creating favourites index: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) LogPaymentNotification(ctx context.Context, n *PaymentNotification) error {
	col, err := mdb.GetCollection(ctx, PaymentNotificationColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = time.Now().UTC()
	}
	n.ExpiresAt = n.ReceivedAt.Add(notificationRetention)
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if _, err := col.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("error inserting payment notification: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) ListPaymentNotifications(ctx context.Context, orderID string, limit int) ([]*PaymentNotification, error) {
	col, err := mdb.GetCollection(ctx, PaymentNotificationColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "received_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding payment notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*PaymentNotification
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding payment notifications: %w", err)
	}
	return out, nil
}
