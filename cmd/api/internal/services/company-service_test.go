package services

import (
	"errors"
	"testing"
	"time"

	"github.com/wmorato/ZapSign/middlewares"
	"github.com/wmorato/ZapSign/pkg/repositories"
)

func TestLoginRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewCompanyService(db, "secret", time.Hour)

	company, err := svc.Create("acme", "")
	if err != nil {
		t.Fatal(err)
	}
	user, err := svc.RegisterUser(company.ID, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatal(err)
	}

	token, got, err := svc.Login("alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Error("login returned wrong user")
	}

	claims, err := middlewares.ParseToken("secret", token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.CompanyID != company.ID || claims.UserID != user.ID {
		t.Errorf("claims mismatch: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := NewCompanyService(db, "secret", time.Hour)

	company, err := svc.Create("acme", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RegisterUser(company.ID, "alice@example.com", "hunter22"); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Login("alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login("nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestIssueAPIKeyStoresOnlyHash(t *testing.T) {
	db := newTestDB(t)
	svc := NewCompanyService(db, "secret", time.Hour)

	company, err := svc.Create("acme", "")
	if err != nil {
		t.Fatal(err)
	}

	raw, key, err := svc.IssueAPIKey(company.ID, "n8n")
	if err != nil {
		t.Fatalf("IssueAPIKey: %v", err)
	}
	if raw == "" || key.Hash == raw {
		t.Fatal("raw key must differ from the stored hash")
	}

	repo := repositories.NewCompanyRepository(db)
	companyID, err := repo.GetCompanyIDByAPIKeyHash(middlewares.HashAPIKey(raw))
	if err != nil {
		t.Fatalf("hash lookup: %v", err)
	}
	if companyID != company.ID {
		t.Error("hash resolves to wrong company")
	}
}
