package storage

import (
	"context"
	"time"

	"github.com/mcoot/lostfound/internal/model"
)

// Storage defines the interface for data persistence.
//
// Email arguments are matched exactly; callers normalize them first.
type Storage interface {
	// Account operations
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]*model.Account, error)
	UpdatePasswordHash(ctx context.Context, id model.AccountID, hash string, updatedAt time.Time) error

	// Item operations
	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, id model.ItemID) (*model.Item, error)
	// ListItems returns items newest first. An empty status lists every item.
	ListItems(ctx context.Context, status model.ItemStatus) ([]*model.Item, error)

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}
