package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/log"
)

const (
	channelPrefix = "race:"
	channelSuffix = ":broadcast"
	sendBuffer    = 64
)

// Hub fans race snapshots out to websocket clients. With Redis attached
// every payload goes through pub/sub so that spectators connected to
// other instances see it too; without Redis delivery is process-local.
type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	logger  *zap.Logger
	done    chan struct{}
}

type Client struct {
	RaceID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		clients: map[string]map[*Client]struct{}{},
		logger:  log.Default().Named("stream"),
		done:    make(chan struct{}),
	}

	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		ps := redisClient.PSubscribe(ctx, channelPrefix+"*"+channelSuffix)
		if _, err := ps.Receive(ctx); err != nil {
			h.logger.Warn("redis relay disabled", log.ErrorField(err))
			_ = ps.Close()
		} else {
			h.redis = redisClient
			h.pubsub = ps
			go h.relay()
		}
	}
	return h
}

func (h *Hub) Register(raceID string) *Client {
	client := &Client{
		RaceID: raceID,
		Send:   make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[raceID] == nil {
		h.clients[raceID] = map[*Client]struct{}{}
	}
	h.clients[raceID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if raceClients, ok := h.clients[client.RaceID]; ok {
		if _, ok := raceClients[client]; !ok {
			return
		}
		delete(raceClients, client)
		if len(raceClients) == 0 {
			delete(h.clients, client.RaceID)
		}
		close(client.Send)
	}
}

// Subscribers reports how many local clients watch raceID.
func (h *Hub) Subscribers(raceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[raceID])
}

func (h *Hub) Broadcast(raceID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(raceID), payload).Err()
		if err == nil {
			return
		}
		h.logger.Warn("redis publish failed, delivering locally",
			zap.String("race_id", raceID), log.ErrorField(err))
	}
	h.deliver(raceID, payload)
}

// Publish JSON-encodes v and broadcasts it.
func (h *Hub) Publish(raceID string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(raceID, payload)
	return nil
}

// Close stops the Redis relay. Local clients stay registered.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	err := h.pubsub.Close()
	<-h.done
	return err
}

func (h *Hub) deliver(raceID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[raceID] {
		select {
		case client.Send <- payload:
		default:
			h.logger.Debug("slow client, dropping message", zap.String("race_id", raceID))
		}
	}
}

func (h *Hub) relay() {
	defer close(h.done)
	for msg := range h.pubsub.Channel() {
		raceID := raceIDFromChannel(msg.Channel)
		if raceID == "" {
			continue
		}
		h.deliver(raceID, []byte(msg.Payload))
	}
}

func redisChannel(raceID string) string {
	return channelPrefix + raceID + channelSuffix
}

func raceIDFromChannel(ch string) string {
	// race:{id}:broadcast
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	if ch[:len(channelPrefix)] != channelPrefix || ch[len(ch)-len(channelSuffix):] != channelSuffix {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
