package services

import (
	"context"
	"testing"

	"github.com/wmorato/ZapSign/pkg/models"
	"github.com/wmorato/ZapSign/pkg/types"
)

func TestWebhookIgnoresUnknownToken(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewWebhookService(db, notifier, testLogger())

	handled, err := svc.Process(context.Background(), &types.WebhookPayload{
		Token:     "never-seen",
		EventType: "doc_signed",
		Status:    "signed",
	})
	if err != nil {
		t.Fatalf("unknown token must not error: %v", err)
	}
	if handled {
		t.Fatal("unknown token reported as handled")
	}
	if len(notifier.events) != 0 {
		t.Fatal("ignored event still broadcast")
	}
}

func TestWebhookUpdatesDocumentAndSigners(t *testing.T) {
	db := newTestDB(t)
	company := newTestCompany(t, db, "tok")
	notifier := &recordingNotifier{}
	svc := NewWebhookService(db, notifier, testLogger())

	doc := &models.Document{CompanyID: company.ID, Name: "contract", Token: "doc-token-1", Status: "pending"}
	if err := db.Create(doc).Error; err != nil {
		t.Fatal(err)
	}
	signer := &models.Signer{DocumentID: doc.ID, Name: "Alice", Token: "signer-token-a", Status: "new"}
	if err := db.Create(signer).Error; err != nil {
		t.Fatal(err)
	}

	handled, err := svc.Process(context.Background(), &types.WebhookPayload{
		Token:      "doc-token-1",
		EventType:  "doc_signed",
		Status:     "signed",
		SignedFile: "https://cdn/signed.pdf",
		Signers:    []types.WebhookSigner{{Token: "signer-token-a", Status: "signed"}},
	})
	if err != nil || !handled {
		t.Fatalf("Process: handled=%v err=%v", handled, err)
	}

	var keptDoc models.Document
	db.First(&keptDoc, "id = ?", doc.ID)
	if keptDoc.Status != "signed" || keptDoc.SignedFileURL != "https://cdn/signed.pdf" {
		t.Errorf("document not reconciled: %+v", keptDoc)
	}
	var keptSigner models.Signer
	db.First(&keptSigner, "id = ?", signer.ID)
	if keptSigner.Status != "signed" {
		t.Errorf("signer not reconciled: %+v", keptSigner)
	}

	// Changed state reaches both the detail and the list groups.
	updates := notifier.byEventType(types.EventDocumentUpdated)
	if len(updates) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(updates))
	}
	groups := map[string]bool{}
	for _, e := range updates {
		groups[e.Group] = true
	}
	if !groups["document_"+doc.ID.String()] || !groups["document_list_"+company.ID.String()] {
		t.Errorf("broadcast groups wrong: %v", groups)
	}
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	company := newTestCompany(t, db, "tok")
	notifier := &recordingNotifier{}
	svc := NewWebhookService(db, notifier, testLogger())

	doc := &models.Document{CompanyID: company.ID, Name: "contract", Token: "doc-token-1", Status: "pending"}
	if err := db.Create(doc).Error; err != nil {
		t.Fatal(err)
	}

	payload := &types.WebhookPayload{Token: "doc-token-1", EventType: "doc_signed", Status: "signed"}
	if _, err := svc.Process(context.Background(), payload); err != nil {
		t.Fatal(err)
	}
	firstUpdatedAt := func() int64 {
		var d models.Document
		db.First(&d, "id = ?", doc.ID)
		return d.UpdatedAt.UnixNano()
	}()

	if _, err := svc.Process(context.Background(), payload); err != nil {
		t.Fatal(err)
	}
	if got := func() int64 {
		var d models.Document
		db.First(&d, "id = ?", doc.ID)
		return d.UpdatedAt.UnixNano()
	}(); got != firstUpdatedAt {
		t.Error("replay rewrote an unchanged document")
	}
	if len(notifier.byEventType(types.EventDocumentUpdated)) != 2 {
		t.Errorf("replay broadcast again: %d events", len(notifier.byEventType(types.EventDocumentUpdated)))
	}
}

func TestWebhookSignerMatchScopedToDocument(t *testing.T) {
	db := newTestDB(t)
	company := newTestCompany(t, db, "tok")
	svc := NewWebhookService(db, &recordingNotifier{}, testLogger())

	docA := &models.Document{CompanyID: company.ID, Name: "a", Token: "doc-token-a"}
	docB := &models.Document{CompanyID: company.ID, Name: "b", Token: "doc-token-b"}
	db.Create(docA)
	db.Create(docB)
	// Same signer token on two documents; only docA's event may touch docA's row.
	signerA := &models.Signer{DocumentID: docA.ID, Name: "Alice", Token: "shared-token", Status: "new"}
	signerB := &models.Signer{DocumentID: docB.ID, Name: "Alice", Token: "shared-token", Status: "new"}
	db.Create(signerA)
	db.Create(signerB)

	if _, err := svc.Process(context.Background(), &types.WebhookPayload{
		Token:   "doc-token-a",
		Status:  "pending",
		Signers: []types.WebhookSigner{{Token: "shared-token", Status: "signed"}},
	}); err != nil {
		t.Fatal(err)
	}

	var keptB models.Signer
	db.First(&keptB, "id = ?", signerB.ID)
	if keptB.Status != "new" {
		t.Errorf("signer of another document mutated: %+v", keptB)
	}
	var keptA models.Signer
	db.First(&keptA, "id = ?", signerA.ID)
	if keptA.Status != "signed" {
		t.Errorf("target signer not updated: %+v", keptA)
	}
}
