package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/whatsview/whatsview-backend/internal/models"
	"github.com/whatsview/whatsview-backend/internal/store"
)

const insertChannel = "whatsview:inserts"

// Bridge fans new-message events out across instances via Redis Pub/Sub. Each
// instance publishes its inserts and runs one subscriber goroutine that feeds the
// local Hub, so viewers connected to any instance see every insert. Without Redis
// the bridge degrades to broadcasting on the local hub directly.
type Bridge struct {
	hub     *Hub
	started sync.Once
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

// Start ensures a single shared Redis listener per instance.
func (b *Bridge) Start(ctx context.Context) {
	b.started.Do(func() {
		go b.runSubscriber(ctx)
	})
}

func (b *Bridge) runSubscriber(ctx context.Context) {
	client := store.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; insert subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.Subscribe(ctx, insertChannel)
			defer pubsub.Close()

			log.Printf("✅ Insert Redis subscriber started (channel: %s)", insertChannel)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event InsertEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal insert event: %v", err)
					continue
				}

				// Fan out to local connections.
				b.hub.Broadcast(event)
			}
		}()
	}
}

// PublishInsert announces a newly created message. With Redis the event goes through
// Pub/Sub (and comes back via the subscriber to reach local connections too); without
// it, or when the publish fails, the local hub is used directly. Delivery failure is
// never surfaced to the request that created the message.
func (b *Bridge) PublishInsert(ctx context.Context, msg *models.Message) {
	event := NewInsertEvent(msg)

	client := store.RedisClient
	if client == nil {
		b.hub.Broadcast(event)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("bridge: failed to marshal insert event: %v", err)
		return
	}
	if err := client.Publish(ctx, insertChannel, data).Err(); err != nil {
		log.Printf("bridge: publish failed, falling back to local broadcast: %v", err)
		b.hub.Broadcast(event)
	}
}
