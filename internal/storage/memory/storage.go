package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/lostfound/internal/model"
	"github.com/mcoot/lostfound/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts   map[model.AccountID]*model.Account
	emailIndex map[string]model.AccountID
	items      map[model.ItemID]*model.Item
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:   make(map[model.AccountID]*model.Account),
		emailIndex: make(map[string]model.AccountID),
		items:      make(map[model.ItemID]*model.Item),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emailIndex[account.Email]; ok {
		return model.ErrDuplicateAccount
	}
	if _, ok := s.accounts[account.ID]; ok {
		return model.ErrDuplicateAccount
	}
	stored := *account
	s.accounts[account.ID] = &stored
	s.emailIndex[account.Email] = account.ID
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	result := *account
	return &result, nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	result := *account
	return &result, nil
}

func (s *Storage) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]*model.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		a := *account
		accounts = append(accounts, &a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (s *Storage) UpdatePasswordHash(ctx context.Context, id model.AccountID, hash string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	account.PasswordHash = hash
	account.UpdatedAt = updatedAt
	return nil
}

// Item operations

func (s *Storage) CreateItem(ctx context.Context, item *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[item.ReporterID]; !ok {
		return model.ErrUnknownReporter
	}
	if _, ok := s.items[item.ID]; ok {
		return model.ErrDuplicateItem
	}
	stored := *item
	if item.Coordinates != nil {
		c := *item.Coordinates
		stored.Coordinates = &c
	}
	s.items[item.ID] = &stored
	return nil
}

func (s *Storage) GetItem(ctx context.Context, id model.ItemID) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, model.ErrItemNotFound
	}
	result := *item
	return &result, nil
}

func (s *Storage) ListItems(ctx context.Context, status model.ItemStatus) ([]*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*model.Item, 0, len(s.items))
	for _, item := range s.items {
		if status != "" && item.Status != status {
			continue
		}
		i := *item
		items = append(items, &i)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ReportedAt.Equal(items[j].ReportedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].ReportedAt.After(items[j].ReportedAt)
	})
	return items, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}
