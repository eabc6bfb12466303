package factory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/lostfound/internal/model"
	"github.com/mcoot/lostfound/internal/services/auth"
	"github.com/mcoot/lostfound/internal/services/items"
	"github.com/mcoot/lostfound/internal/services/token"
	"github.com/mcoot/lostfound/internal/storage/memory"
	redisstorage "github.com/mcoot/lostfound/internal/storage/redis"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

// Test: signup, login, verify the token, report an item as that account
func (s *IntegrationSuite) TestSignupLoginReportFlow() {
	account, err := s.app.AuthService.Signup(s.ctx, auth.SignupInput{Email: "a@x.com", Password: "pw1", Name: "A"})
	s.Require().NoError(err)

	result, err := s.app.AuthService.Login(s.ctx, auth.LoginInput{Email: "a@x.com", Password: "pw1"})
	s.Require().NoError(err)

	claims, err := s.app.AuthService.VerifyToken(result.Token)
	s.Require().NoError(err)
	s.Equal(string(account.ID), claims.AccountID)

	item, err := s.app.ItemService.Report(s.ctx, model.AccountID(claims.AccountID), items.ReportInput{
		Title: "Keys", Location: "Library", Status: "lost",
	})
	s.Require().NoError(err)
	s.Equal(account.ID, item.ReporterID)
}

// Test: tokens stop working once the mock clock passes their expiry
func (s *IntegrationSuite) TestTokenExpiresWithClock() {
	_, err := s.app.AuthService.Signup(s.ctx, auth.SignupInput{Email: "a@x.com", Password: "pw1", Name: "A"})
	s.Require().NoError(err)
	result, err := s.app.AuthService.Login(s.ctx, auth.LoginInput{Email: "a@x.com", Password: "pw1"})
	s.Require().NoError(err)

	s.app.MockClock.Advance(s.app.Tokens.TTL() + time.Second)

	_, err = s.app.AuthService.VerifyToken(result.Token)
	s.ErrorIs(err, token.ErrTokenExpired)
}

func TestOpenStorageMemory(t *testing.T) {
	store, err := OpenStorage(context.Background(), "memory://", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*memory.Storage); !ok {
		t.Fatalf("expected memory storage, got %T", store)
	}
}

func TestOpenStorageRedis(t *testing.T) {
	mini := miniredis.RunT(t)

	store, err := OpenStorage(context.Background(), "redis://"+mini.Addr(), 4)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, ok := store.(*redisstorage.Storage); !ok {
		t.Fatalf("expected redis storage, got %T", store)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestOpenStorageUnknownScheme(t *testing.T) {
	_, err := OpenStorage(context.Background(), "mongodb://localhost", 0)
	if err == nil {
		t.Fatal("expected error for unknown scheme")
	}
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(context.Background(), Config{DatabaseURL: "memory://"})
	if err == nil {
		t.Fatal("expected error without a signing secret")
	}
}

func TestNewWiresMemoryApp(t *testing.T) {
	app, err := New(context.Background(), Config{
		DatabaseURL: "memory://",
		Token:       token.Config{Secret: "s"},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if app.AuthService == nil || app.ItemService == nil || app.Registry == nil {
		t.Fatal("app not fully wired")
	}
}
