package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/whatsview/whatsview-backend/internal/models"
	"github.com/whatsview/whatsview-backend/internal/store"
)

const (
	conversationsCacheKey = "conversations:summary"
	conversationsCacheTTL = 30 * time.Second
)

// LoadConversationsWithCache returns the conversation summaries, trying the Redis
// cache first and warming it on a miss. Without Redis it reads straight from Mongo.
func LoadConversationsWithCache(ctx context.Context, msgs *store.Messages) ([]models.Conversation, error) {
	if cached, ok := conversationsFromCache(ctx); ok {
		return cached, nil
	}

	convs, err := msgs.Conversations(ctx)
	if err != nil {
		return nil, err
	}
	warmConversationsCache(ctx, convs)
	return convs, nil
}

// InvalidateConversationsCache drops the cached summary. Called after every message
// insert so new conversations show up within one request rather than one TTL.
func InvalidateConversationsCache(ctx context.Context) {
	if store.RedisClient == nil {
		return
	}
	if err := store.RedisClient.Del(ctx, conversationsCacheKey).Err(); err != nil {
		log.Printf("conversations cache: invalidate failed: %v", err)
	}
}

func conversationsFromCache(ctx context.Context) ([]models.Conversation, bool) {
	if store.RedisClient == nil {
		return nil, false
	}
	raw, err := store.RedisClient.Get(ctx, conversationsCacheKey).Result()
	if err != nil || raw == "" {
		return nil, false
	}
	var convs []models.Conversation
	if err := json.Unmarshal([]byte(raw), &convs); err != nil {
		return nil, false
	}
	return convs, true
}

func warmConversationsCache(ctx context.Context, convs []models.Conversation) {
	if store.RedisClient == nil || len(convs) == 0 {
		return
	}
	data, err := json.Marshal(convs)
	if err != nil {
		return
	}
	if err := store.RedisClient.Set(ctx, conversationsCacheKey, data, conversationsCacheTTL).Err(); err != nil {
		log.Printf("conversations cache: warm failed: %v", err)
	}
}
