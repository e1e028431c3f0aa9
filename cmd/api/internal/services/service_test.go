package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/pkg/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Company{}, &models.User{}, &models.APIKey{},
		&models.Document{}, &models.Signer{}, &models.DocumentAnalysis{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestCompany(t *testing.T, db *gorm.DB, apiToken string) *models.Company {
	t.Helper()
	company := &models.Company{Name: "acme", APIToken: apiToken}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	return company
}

// recordedEvent is one broadcast captured by the fake notifier.
type recordedEvent struct {
	Group     string
	EventType string
	Data      interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) BroadcastDocumentUpdate(_ context.Context, documentID uuid.UUID, eventType string, data interface{}) {
	n.record("document_"+documentID.String(), eventType, data)
}

func (n *recordingNotifier) BroadcastDocumentListUpdate(_ context.Context, companyID uuid.UUID, eventType string, data interface{}) {
	n.record("document_list_"+companyID.String(), eventType, data)
}

func (n *recordingNotifier) record(group, eventType string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Group: group, EventType: eventType, Data: data})
}

func (n *recordingNotifier) byEventType(eventType string) []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []recordedEvent
	for _, e := range n.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type publishedTask struct {
	Topic string
	Key   []byte
	Value []byte
}

type fakeProducer struct {
	mu    sync.Mutex
	tasks []publishedTask
	err   error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.tasks = append(p.tasks, publishedTask{Topic: topic, Key: key, Value: value})
	return nil
}

func (p *fakeProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

func testLogger() *zap.Logger { return zap.NewNop() }
