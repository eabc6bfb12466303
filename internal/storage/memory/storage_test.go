package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mcoot/lostfound/internal/model"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) account(id, email string) *model.Account {
	return &model.Account{
		ID:           model.AccountID(id),
		Email:        email,
		Name:         "Alice",
		PasswordHash: "hash123",
		CreatedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Account tests

func (s *StorageSuite) TestCreateAndGetAccount() {
	err := s.storage.CreateAccount(s.ctx, s.account("acc-1", "a@x.com"))
	s.Require().NoError(err)

	retrieved, err := s.storage.GetAccount(s.ctx, "acc-1")
	s.Require().NoError(err)
	s.Equal("a@x.com", retrieved.Email)
	s.Equal("hash123", retrieved.PasswordHash)
}

func (s *StorageSuite) TestGetAccountNotFound() {
	_, err := s.storage.GetAccount(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestGetAccountByEmail() {
	_ = s.storage.CreateAccount(s.ctx, s.account("acc-1", "a@x.com"))

	retrieved, err := s.storage.GetAccountByEmail(s.ctx, "a@x.com")
	s.Require().NoError(err)
	s.Equal(model.AccountID("acc-1"), retrieved.ID)
}

func (s *StorageSuite) TestGetAccountByEmailIsExactMatch() {
	_ = s.storage.CreateAccount(s.ctx, s.account("acc-1", "a@x.com"))

	_, err := s.storage.GetAccountByEmail(s.ctx, "A@X.com")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestCreateAccountDuplicateEmail() {
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.account("acc-1", "a@x.com")))

	err := s.storage.CreateAccount(s.ctx, s.account("acc-2", "a@x.com"))
	s.ErrorIs(err, model.ErrDuplicateAccount)

	accounts, err := s.storage.ListAccounts(s.ctx)
	s.Require().NoError(err)
	s.Len(accounts, 1)
	s.Equal(model.AccountID("acc-1"), accounts[0].ID)
}

func (s *StorageSuite) TestCreateAccountDuplicateID() {
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.account("acc-1", "a@x.com")))

	err := s.storage.CreateAccount(s.ctx, s.account("acc-1", "b@x.com"))
	s.ErrorIs(err, model.ErrDuplicateAccount)

	kept, err := s.storage.GetAccount(s.ctx, "acc-1")
	s.Require().NoError(err)
	s.Equal("a@x.com", kept.Email)

	_, err = s.storage.GetAccountByEmail(s.ctx, "b@x.com")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestReturnedAccountIsACopy() {
	_ = s.storage.CreateAccount(s.ctx, s.account("acc-1", "a@x.com"))

	retrieved, _ := s.storage.GetAccount(s.ctx, "acc-1")
	retrieved.PasswordHash = "tampered"

	again, err := s.storage.GetAccount(s.ctx, "acc-1")
	s.Require().NoError(err)
	s.Equal("hash123", again.PasswordHash)
}

func (s *StorageSuite) TestListAccountsOrderedByCreation() {
	first := s.account("acc-b", "b@x.com")
	second := s.account("acc-a", "a@x.com")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	_ = s.storage.CreateAccount(s.ctx, second)
	_ = s.storage.CreateAccount(s.ctx, first)

	accounts, err := s.storage.ListAccounts(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(accounts, 2)
	s.Equal(model.AccountID("acc-b"), accounts[0].ID)
	s.Equal(model.AccountID("acc-a"), accounts[1].ID)
}

func (s *StorageSuite) TestUpdatePasswordHash() {
	_ = s.storage.CreateAccount(s.ctx, s.account("acc-1", "a@x.com"))
	updated := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	err := s.storage.UpdatePasswordHash(s.ctx, "acc-1", "newhash", updated)
	s.Require().NoError(err)

	retrieved, _ := s.storage.GetAccount(s.ctx, "acc-1")
	s.Equal("newhash", retrieved.PasswordHash)
	s.Equal(updated, retrieved.UpdatedAt)
}

func (s *StorageSuite) TestUpdatePasswordHashNotFound() {
	err := s.storage.UpdatePasswordHash(s.ctx, "missing", "hash", time.Now())
	s.ErrorIs(err, model.ErrAccountNotFound)
}

// Item tests

func (s *StorageSuite) TestCreateAndGetItem() {
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.account("acc-1", "a@x.com")))
	item := &model.Item{
		ID:          "item-1",
		Title:       "Wallet",
		Location:    "Library",
		Status:      model.ItemStatusLost,
		ReporterID:  "acc-1",
		Coordinates: &model.Coordinates{Lat: 1.5, Lng: 2.5},
		ReportedAt:  time.Now(),
	}
	s.Require().NoError(s.storage.CreateItem(s.ctx, item))

	retrieved, err := s.storage.GetItem(s.ctx, "item-1")
	s.Require().NoError(err)
	s.Equal("Wallet", retrieved.Title)
	s.Require().NotNil(retrieved.Coordinates)
	s.InDelta(1.5, retrieved.Coordinates.Lat, 0.0001)
}

func (s *StorageSuite) TestCreateItemUnknownReporter() {
	item := &model.Item{ID: "item-1", ReporterID: "ghost", Status: model.ItemStatusLost, ReportedAt: time.Now()}

	err := s.storage.CreateItem(s.ctx, item)
	s.ErrorIs(err, model.ErrUnknownReporter)

	_, err = s.storage.GetItem(s.ctx, "item-1")
	s.ErrorIs(err, model.ErrItemNotFound)
}

func (s *StorageSuite) TestCreateItemDuplicateID() {
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.account("acc-1", "a@x.com")))
	first := &model.Item{ID: "item-1", Title: "Wallet", ReporterID: "acc-1", Status: model.ItemStatusLost, ReportedAt: time.Now()}
	s.Require().NoError(s.storage.CreateItem(s.ctx, first))

	second := &model.Item{ID: "item-1", Title: "Keys", ReporterID: "acc-1", Status: model.ItemStatusFound, ReportedAt: time.Now()}
	err := s.storage.CreateItem(s.ctx, second)
	s.ErrorIs(err, model.ErrDuplicateItem)
	s.NotErrorIs(err, model.ErrDuplicateAccount)

	kept, err := s.storage.GetItem(s.ctx, "item-1")
	s.Require().NoError(err)
	s.Equal("Wallet", kept.Title)

	all, err := s.storage.ListItems(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *StorageSuite) TestGetItemNotFound() {
	_, err := s.storage.GetItem(s.ctx, "missing")
	s.ErrorIs(err, model.ErrItemNotFound)
}

func (s *StorageSuite) TestListItemsFiltersAndOrders() {
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.account("acc-1", "a@x.com")))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.storage.CreateItem(s.ctx, &model.Item{ID: "old-lost", ReporterID: "acc-1", Status: model.ItemStatusLost, ReportedAt: base})
	_ = s.storage.CreateItem(s.ctx, &model.Item{ID: "new-lost", ReporterID: "acc-1", Status: model.ItemStatusLost, ReportedAt: base.Add(time.Hour)})
	_ = s.storage.CreateItem(s.ctx, &model.Item{ID: "found", ReporterID: "acc-1", Status: model.ItemStatusFound, ReportedAt: base.Add(30 * time.Minute)})

	lost, err := s.storage.ListItems(s.ctx, model.ItemStatusLost)
	s.Require().NoError(err)
	s.Require().Len(lost, 2)
	s.Equal(model.ItemID("new-lost"), lost[0].ID)
	s.Equal(model.ItemID("old-lost"), lost[1].ID)

	all, err := s.storage.ListItems(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(model.ItemID("found"), all[1].ID)
}
