package hub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return New(zap.NewNop())
}

func TestPublishFansOutToGroupMembers(t *testing.T) {
	h := newTestHub()
	group := DocumentGroup(uuid.New())

	a := make(chan []byte, 1)
	b := make(chan []byte, 1)
	h.Join(group, "conn-a", a)
	h.Join(group, "conn-b", b)

	h.Publish(group, Envelope{Type: TypeDocumentUpdate, EventType: "document_updated", Data: map[string]string{"status": "signed"}})

	for name, ch := range map[string]chan []byte{"a": a, "b": b} {
		select {
		case raw := <-ch:
			var env Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				t.Fatalf("member %s: invalid envelope: %v", name, err)
			}
			if env.Type != TypeDocumentUpdate || env.EventType != "document_updated" {
				t.Errorf("member %s: got %+v", name, env)
			}
		default:
			t.Fatalf("member %s received nothing", name)
		}
	}
}

func TestPublishDoesNotCrossGroups(t *testing.T) {
	h := newTestHub()
	docGroup := DocumentGroup(uuid.New())
	listGroup := DocumentListGroup(uuid.New())

	listCh := make(chan []byte, 1)
	h.Join(listGroup, "list-conn", listCh)

	h.Publish(docGroup, Envelope{Type: TypeDocumentUpdate, EventType: "document_updated"})

	select {
	case <-listCh:
		t.Fatal("list group received a document detail event")
	default:
	}
}

func TestJoinIsIdempotentAndLeavePrunes(t *testing.T) {
	h := newTestHub()
	group := DocumentGroup(uuid.New())

	first := make(chan []byte, 1)
	second := make(chan []byte, 1)
	h.Join(group, "conn", first)
	h.Join(group, "conn", second)

	if got := h.MemberCount(group); got != 1 {
		t.Fatalf("expected 1 member after re-join, got %d", got)
	}

	h.Publish(group, Envelope{Type: TypeDocumentUpdate, EventType: "document_created"})
	select {
	case <-first:
		t.Fatal("replaced send queue still receiving")
	default:
	}
	select {
	case <-second:
	default:
		t.Fatal("current send queue received nothing")
	}

	h.Leave(group, "conn")
	h.Leave(group, "conn") // absent, must not panic
	if got := h.MemberCount(group); got != 0 {
		t.Fatalf("expected empty group after leave, got %d", got)
	}
}

func TestPublishSkipsSlowConsumer(t *testing.T) {
	h := newTestHub()
	group := DocumentListGroup(uuid.New())

	full := make(chan []byte, 1)
	full <- []byte("stale")
	healthy := make(chan []byte, 2)
	h.Join(group, "slow", full)
	h.Join(group, "healthy", healthy)

	// Must not block even though "slow" has no queue capacity left.
	h.Publish(group, Envelope{Type: TypeDocumentListUpdate, EventType: "document_created"})

	select {
	case <-healthy:
	default:
		t.Fatal("healthy consumer missed the message")
	}
}

func TestLocalNotifierWrapsGroups(t *testing.T) {
	h := newTestHub()
	n := NewLocalNotifier(h)

	docID := uuid.New()
	companyID := uuid.New()

	docCh := make(chan []byte, 1)
	listCh := make(chan []byte, 1)
	h.Join(DocumentGroup(docID), "doc-conn", docCh)
	h.Join(DocumentListGroup(companyID), "list-conn", listCh)

	ctx := context.Background()
	n.BroadcastDocumentUpdate(ctx, docID, "analysis_completed", map[string]string{"summary": "ok"})
	n.BroadcastDocumentListUpdate(ctx, companyID, "document_deleted", nil)

	var env Envelope
	select {
	case raw := <-docCh:
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatal(err)
		}
		if env.Type != TypeDocumentUpdate || env.EventType != "analysis_completed" {
			t.Errorf("document group got %+v", env)
		}
	default:
		t.Fatal("document group received nothing")
	}

	select {
	case raw := <-listCh:
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatal(err)
		}
		if env.Type != TypeDocumentListUpdate || env.EventType != "document_deleted" {
			t.Errorf("list group got %+v", env)
		}
	default:
		t.Fatal("list group received nothing")
	}
}
