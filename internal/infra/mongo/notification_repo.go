package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notificationsCollection = "notifications"

type notificationDoc struct {
	ID              string    `bson:"_id"`
	RecipientID     uint      `bson:"recipient_id"`
	Title           string    `bson:"title"`
	Message         string    `bson:"message"`
	DeliverInApp    bool      `bson:"deliver_in_app"`
	DeliverPlatform bool      `bson:"deliver_platform"`
	Read            bool      `bson:"read"`
	CreatedAt       time.Time `bson:"created_at"`
}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(dbName)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type NotificationRepository struct {
	col *mongo.Collection
}

// NewNotificationRepository ensures the recipient index exists.
func NewNotificationRepository(ctx context.Context, store *Store) (*NotificationRepository, error) {
	col := store.db.Collection(notificationsCollection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create notifications index: %w", err)
	}
	return &NotificationRepository{col: col}, nil
}

func (r *NotificationRepository) Create(ctx context.Context, record *domain.NotificationRecord) error {
	_, err := r.col.InsertOne(ctx, toDoc(*record))
	return err
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID uint, unreadOnly bool) ([]domain.NotificationRecord, error) {
	filter := bson.M{"recipient_id": recipientID, "deliver_in_app": true}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(200)
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	records := make([]domain.NotificationRecord, 0)
	for cur.Next(ctx) {
		var doc notificationDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, fromDoc(doc))
	}
	return records, cur.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID uint, id string) error {
	result, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "recipient_id": recipientID}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toDoc(record domain.NotificationRecord) notificationDoc {
	return notificationDoc{
		ID:              record.ID,
		RecipientID:     record.RecipientID,
		Title:           record.Title,
		Message:         record.Message,
		DeliverInApp:    record.DeliverInApp,
		DeliverPlatform: record.DeliverPlatform,
		Read:            record.Read,
		CreatedAt:       record.CreatedAt,
	}
}

func fromDoc(doc notificationDoc) domain.NotificationRecord {
	return domain.NotificationRecord{
		ID:              doc.ID,
		RecipientID:     doc.RecipientID,
		Title:           doc.Title,
		Message:         doc.Message,
		DeliverInApp:    doc.DeliverInApp,
		DeliverPlatform: doc.DeliverPlatform,
		Read:            doc.Read,
		CreatedAt:       doc.CreatedAt,
	}
}
