package hub

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// eventsChannel is the redis pub/sub channel acting as the cross-process
// channel layer: the worker and every API instance publish here, and
// each API instance relays into its local hub.
const eventsChannel = "zapsign.events"

// Notifier is the broadcast surface used by services and the worker.
type Notifier interface {
	BroadcastDocumentUpdate(ctx context.Context, documentID uuid.UUID, eventType string, data interface{})
	BroadcastDocumentListUpdate(ctx context.Context, companyID uuid.UUID, eventType string, data interface{})
}

type relayMessage struct {
	Group    string   `json:"group"`
	Envelope Envelope `json:"envelope"`
}

// Broadcaster publishes hub events through redis. Delivery is
// fire-and-forget; a failed publish is logged, never surfaced to the
// mutation that triggered it.
type Broadcaster struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewBroadcaster(rdb *redis.Client, log *zap.Logger) *Broadcaster {
	return &Broadcaster{rdb: rdb, log: log}
}

func (b *Broadcaster) BroadcastDocumentUpdate(ctx context.Context, documentID uuid.UUID, eventType string, data interface{}) {
	b.publish(ctx, DocumentGroup(documentID), Envelope{
		Type:      TypeDocumentUpdate,
		EventType: eventType,
		Data:      data,
	})
}

func (b *Broadcaster) BroadcastDocumentListUpdate(ctx context.Context, companyID uuid.UUID, eventType string, data interface{}) {
	b.publish(ctx, DocumentListGroup(companyID), Envelope{
		Type:      TypeDocumentListUpdate,
		EventType: eventType,
		Data:      data,
	})
}

func (b *Broadcaster) publish(ctx context.Context, group string, env Envelope) {
	payload, err := json.Marshal(relayMessage{Group: group, Envelope: env})
	if err != nil {
		b.log.Error("failed to marshal relay message", zap.Error(err))
		return
	}
	if err := b.rdb.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		b.log.Error("failed to publish hub event",
			zap.String("group", group),
			zap.String("event_type", env.EventType),
			zap.Error(err),
		)
	}
}

// RunRelay subscribes to the redis events channel and republishes every
// message into the local hub. Blocks until ctx is cancelled.
func RunRelay(ctx context.Context, rdb *redis.Client, h *Hub, log *zap.Logger) {
	sub := rdb.Subscribe(ctx, eventsChannel)
	defer sub.Close()

	ch := sub.Channel()
	log.Info("hub relay started", zap.String("channel", eventsChannel))

	for {
		select {
		case <-ctx.Done():
			log.Info("hub relay stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var rm relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
				log.Error("malformed relay message", zap.Error(err))
				continue
			}
			h.Publish(rm.Group, rm.Envelope)
		}
	}
}

// LocalNotifier publishes straight into an in-process hub, bypassing
// redis. Used by tests and single-instance deployments.
type LocalNotifier struct {
	hub *Hub
}

func NewLocalNotifier(h *Hub) *LocalNotifier {
	return &LocalNotifier{hub: h}
}

func (n *LocalNotifier) BroadcastDocumentUpdate(ctx context.Context, documentID uuid.UUID, eventType string, data interface{}) {
	n.hub.Publish(DocumentGroup(documentID), Envelope{
		Type:      TypeDocumentUpdate,
		EventType: eventType,
		Data:      data,
	})
}

func (n *LocalNotifier) BroadcastDocumentListUpdate(ctx context.Context, companyID uuid.UUID, eventType string, data interface{}) {
	n.hub.Publish(DocumentListGroup(companyID), Envelope{
		Type:      TypeDocumentListUpdate,
		EventType: eventType,
		Data:      data,
	})
}
