package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wmorato/ZapSign/pkg/models"
	"github.com/wmorato/ZapSign/pkg/types"
	"gorm.io/gorm"
)

func TestEnqueueCreatesPendingRowAndPublishes(t *testing.T) {
	db := newTestDB(t)
	company := newTestCompany(t, db, "tok")
	producer := &fakeProducer{}
	svc := NewAnalysisService(db, producer, "gemini", testLogger())

	doc := &models.Document{CompanyID: company.ID, Name: "contract"}
	if err := db.Create(doc).Error; err != nil {
		t.Fatal(err)
	}

	if err := svc.Enqueue(context.Background(), doc.ID, "full contract text"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	var analysis models.DocumentAnalysis
	if err := db.First(&analysis, "document_id = ?", doc.ID).Error; err != nil {
		t.Fatalf("analysis row missing: %v", err)
	}
	if analysis.Status != models.AnalysisPending {
		t.Errorf("expected pending, got %q", analysis.Status)
	}

	if producer.count() != 1 {
		t.Fatalf("expected 1 published task, got %d", producer.count())
	}
	var task types.AnalysisTask
	if err := json.Unmarshal(producer.tasks[0].Value, &task); err != nil {
		t.Fatal(err)
	}
	if task.DocumentID != doc.ID || task.Content != "full contract text" || task.ModelName != "gemini" {
		t.Errorf("unexpected task %+v", task)
	}
	if producer.tasks[0].Topic != types.TopicDocumentAnalysis {
		t.Errorf("published to %q", producer.tasks[0].Topic)
	}
}

func TestReanalyzeRequiresPDFURL(t *testing.T) {
	db := newTestDB(t)
	company := newTestCompany(t, db, "tok")
	svc := NewAnalysisService(db, &fakeProducer{}, "gemini", testLogger())

	doc := &models.Document{CompanyID: company.ID, Name: "contract"} // no url_pdf
	if err := db.Create(doc).Error; err != nil {
		t.Fatal(err)
	}

	err := svc.Reanalyze(context.Background(), company.ID, doc.ID)
	if !errors.Is(err, ErrAnalysisSourceRequired) {
		t.Fatalf("expected ErrAnalysisSourceRequired, got %v", err)
	}
}

func TestReanalyzeResetsPreviousResult(t *testing.T) {
	db := newTestDB(t)
	company := newTestCompany(t, db, "tok")
	producer := &fakeProducer{}
	svc := NewAnalysisService(db, producer, "gemini", testLogger())

	// The served bytes are not a parsable PDF, so extraction fails and
	// the reset row must end up failed rather than keep the old result.
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a pdf"))
	}))
	defer files.Close()

	doc := &models.Document{CompanyID: company.ID, Name: "contract", URLPDF: files.URL + "/contract.pdf"}
	if err := db.Create(doc).Error; err != nil {
		t.Fatal(err)
	}
	oldSummary := "previous summary"
	old := &models.DocumentAnalysis{
		DocumentID: doc.ID,
		Status:     models.AnalysisCompleted,
		Summary:    &oldSummary,
		ModelUsed:  "openai",
	}
	if err := db.Create(old).Error; err != nil {
		t.Fatal(err)
	}

	err := svc.Reanalyze(context.Background(), company.ID, doc.ID)
	if err == nil {
		t.Fatal("expected extraction failure")
	}

	var kept models.DocumentAnalysis
	db.First(&kept, "document_id = ?", doc.ID)
	if kept.Status != models.AnalysisFailed {
		t.Errorf("expected failed after unreadable source, got %q", kept.Status)
	}
	if kept.Summary == nil || *kept.Summary == oldSummary {
		t.Error("old summary survived the reset")
	}
	if producer.count() != 0 {
		t.Error("unreadable source still enqueued a task")
	}
}

func TestReanalyzeFailsOnDownloadError(t *testing.T) {
	db := newTestDB(t)
	company := newTestCompany(t, db, "tok")
	producer := &fakeProducer{}
	svc := NewAnalysisService(db, producer, "gemini", testLogger())

	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer files.Close()

	doc := &models.Document{CompanyID: company.ID, Name: "contract", URLPDF: files.URL + "/gone.pdf"}
	if err := db.Create(doc).Error; err != nil {
		t.Fatal(err)
	}

	if err := svc.Reanalyze(context.Background(), company.ID, doc.ID); err == nil {
		t.Fatal("expected download failure")
	}
	var kept models.DocumentAnalysis
	if err := db.First(&kept, "document_id = ?", doc.ID).Error; err != nil {
		t.Fatalf("failure must persist an analysis row: %v", err)
	}
	if kept.Status != models.AnalysisFailed {
		t.Errorf("expected failed, got %q", kept.Status)
	}
}

func TestGetAnalysisIsCompanyScoped(t *testing.T) {
	db := newTestDB(t)
	owner := newTestCompany(t, db, "tok")
	other := &models.Company{Name: "other"}
	if err := db.Create(other).Error; err != nil {
		t.Fatal(err)
	}
	svc := NewAnalysisService(db, &fakeProducer{}, "gemini", testLogger())

	doc := &models.Document{CompanyID: owner.ID, Name: "contract"}
	if err := db.Create(doc).Error; err != nil {
		t.Fatal(err)
	}
	db.Create(&models.DocumentAnalysis{DocumentID: doc.ID, Status: models.AnalysisCompleted})

	if _, err := svc.Get(other.ID, doc.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("cross-company analysis read must fail, got %v", err)
	}
	analysis, err := svc.Get(owner.ID, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Status != models.AnalysisCompleted {
		t.Errorf("unexpected analysis %+v", analysis)
	}
}
