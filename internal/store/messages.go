package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/whatsview/whatsview-backend/internal/models"
)

// Messages wraps the processed_messages collection. One document per message, keyed
// by the message id as _id, so duplicate-create protection comes from the unique
// index Mongo keeps on _id combined with $setOnInsert upserts.
type Messages struct {
	col *mongo.Collection
}

// NewMessages returns a store over the given collection name in the connected DB.
func NewMessages(collection string) *Messages {
	return &Messages{col: DB.Collection(collection)}
}

// EnsureIndexes configures the (waId, timestamps.whatsapp) index backing the
// conversation and message listing queries. Called on startup after Connect.
func (s *Messages) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "waId", Value: 1},
			{Key: "timestamps.whatsapp", Value: -1},
		},
		Options: options.Index().SetName("idx_waid_whatsapp"),
	}
	if _, err := s.col.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("create message index: %w", err)
	}
	return nil
}

// FindByID returns the message with the given id, or (nil, nil) when absent.
func (s *Messages) FindByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find message %s: %w", id, err)
	}
	return &msg, nil
}

// InsertIfAbsent creates the message only when no document with its id exists yet;
// an existing document is left completely untouched. Returns true iff a new document
// was created. Atomicity comes from Mongo's upsert with $setOnInsert; this must not
// be reimplemented as a read-then-write.
func (s *Messages) InsertIfAbsent(ctx context.Context, msg *models.Message) (bool, error) {
	res, err := s.col.UpdateOne(
		ctx,
		bson.M{"_id": msg.ID},
		bson.M{"$setOnInsert": msg},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("upsert message %s: %w", msg.ID, err)
	}
	return res.UpsertedCount > 0, nil
}

// Replace overwrites the stored document for msg.ID with msg.
func (s *Messages) Replace(ctx context.Context, msg *models.Message) error {
	if _, err := s.col.ReplaceOne(ctx, bson.M{"_id": msg.ID}, msg); err != nil {
		return fmt.Errorf("replace message %s: %w", msg.ID, err)
	}
	return nil
}

// ListByWaID returns a conversation's messages oldest-first (event time, then id for
// a stable order between equal timestamps).
func (s *Messages) ListByWaID(ctx context.Context, waID string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "timestamps.whatsapp", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.col.Find(ctx, bson.M{"waId": waID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages for %s: %w", waID, err)
	}
	defer cur.Close(ctx)

	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("decode messages for %s: %w", waID, err)
	}
	return msgs, nil
}

// Conversations groups messages by waId and projects the latest message of each
// group, most recent conversation first. Messages without a string waId (unresolved
// counterparty) are excluded.
func (s *Messages) Conversations(ctx context.Context) ([]models.Conversation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"waId": bson.M{"$type": "string"}}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "timestamps.whatsapp", Value: 1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":  "$waId",
			"last": bson.M{"$last": "$$ROOT"},
			// Keep any non-empty name seen in the conversation
			"name": bson.M{"$max": bson.M{"$ifNull": bson.A{"$name", ""}}},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":                  0,
			"waId":                 "$_id",
			"name":                 bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$name", ""}}, nil, "$name"}},
			"lastMessageText":      "$last.text",
			"lastMessageAt":        "$last.timestamps.whatsapp",
			"lastMessageDirection": "$last.direction",
			"lastMessageStatus":    "$last.status",
		}}},
		{{Key: "$sort", Value: bson.M{"lastMessageAt": -1}}},
	}

	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate conversations: %w", err)
	}
	defer cur.Close(ctx)

	var convs []models.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return convs, nil
}
