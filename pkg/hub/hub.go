package hub

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/metrics"
	"go.uber.org/zap"
)

// Message types on the wire, matching the two consumer families.
const (
	TypeDocumentUpdate     = "document_update"
	TypeDocumentListUpdate = "document_list_update"
)

// Envelope is the wire format delivered to every channel of a group.
type Envelope struct {
	Type      string      `json:"type"`
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data"`
}

// DocumentGroup is the detail group key for one document.
func DocumentGroup(documentID uuid.UUID) string {
	return fmt.Sprintf("document_%s", documentID)
}

// DocumentListGroup is the list group key for one company.
func DocumentListGroup(companyID uuid.UUID) string {
	return fmt.Sprintf("document_list_%s", companyID)
}

// Hub is an in-memory group registry. Membership is ephemeral: it never
// survives the process, and a channel id is only ever an address for an
// open connection's send queue.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[string]chan []byte
	log    *zap.Logger
}

func New(log *zap.Logger) *Hub {
	return &Hub{
		groups: make(map[string]map[string]chan []byte),
		log:    log,
	}
}

// Join adds a channel to a group. Idempotent: re-joining replaces the
// send queue for that channel id.
func (h *Hub) Join(group, channelID string, send chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]chan []byte)
		h.groups[group] = members
	}
	members[channelID] = send
}

// Leave removes a channel from a group. No-op when absent.
func (h *Hub) Leave(group, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, channelID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// Publish delivers an envelope to every member of a group,
// fire-and-forget. A member whose send queue is full misses the message
// rather than blocking the publisher.
func (h *Hub) Publish(group string, env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.log.Error("failed to marshal hub envelope", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	metrics.HubEventsTotal.WithLabelValues(env.EventType).Inc()
	for channelID, send := range h.groups[group] {
		select {
		case send <- payload:
		default:
			h.log.Warn("dropping hub message for slow consumer",
				zap.String("group", group),
				zap.String("channel", channelID),
			)
		}
	}
}

// MemberCount reports current membership of a group.
func (h *Hub) MemberCount(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}
