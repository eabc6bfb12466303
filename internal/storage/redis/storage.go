package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/lostfound/internal/model"
	"github.com/mcoot/lostfound/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().DialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, classify(err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the connection
func (s *Storage) Ping(ctx context.Context) error {
	return classify(s.client.Ping(ctx).Err())
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// classify marks transport failures as ErrStoreUnavailable. Errors the server
// itself replied with are passed through wrapped.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var serverErr redis.Error
	if errors.As(err, &serverErr) {
		return fmt.Errorf("redis: %w", err)
	}
	return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
}

// Account operations

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// Claim the email first so two concurrent signups cannot both win
	claimed, err := s.client.SetNX(ctx, emailIndexKey(account.Email), string(account.ID), 0).Result()
	if err != nil {
		return classify(err)
	}
	if !claimed {
		return model.ErrDuplicateAccount
	}

	// An id collision must not overwrite the existing account
	stored, err := s.client.SetNX(ctx, accountKey(account.ID), data, 0).Result()
	if err != nil || !stored {
		// Release the email claim so the address is not locked out
		_ = s.client.Del(context.WithoutCancel(ctx), emailIndexKey(account.Email)).Err()
		if err != nil {
			return classify(err)
		}
		return model.ErrDuplicateAccount
	}

	if err := s.client.SAdd(ctx, accountsIndexKey(), string(account.ID)).Err(); err != nil {
		_ = s.client.Del(context.WithoutCancel(ctx), accountKey(account.ID), emailIndexKey(account.Email)).Err()
		return classify(err)
	}
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, classify(err)
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	id, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, classify(err)
	}

	return s.GetAccount(ctx, model.AccountID(id))
}

func (s *Storage) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	ids, err := s.client.SMembers(ctx, accountsIndexKey()).Result()
	if err != nil {
		return nil, classify(err)
	}
	if len(ids) == 0 {
		return []*model.Account{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = accountKey(model.AccountID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, classify(err)
	}

	accounts := make([]*model.Account, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var account model.Account
		if err := json.Unmarshal([]byte(str), &account); err != nil {
			continue // Skip invalid data
		}
		accounts = append(accounts, &account)
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
	key := accountKey(id)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrAccountNotFound
			}
			return err
		}

		var account model.Account
		if err := json.Unmarshal(data, &account); err != nil {
			return err
		}
		account.PasswordHash = hash
		account.UpdatedAt = updatedAt

		updated, err := json.Marshal(&account)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, model.ErrAccountNotFound) {
		return err
	}
	return classify(err)
}

// Item operations

func (s *Storage) CreateItem(ctx context.Context, item *model.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	score := float64(item.ReportedAt.UnixNano())
	member := redis.Z{Score: score, Member: string(item.ID)}
	key := itemKey(item.ID)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		reporters, err := tx.Exists(ctx, accountKey(item.ReporterID)).Result()
		if err != nil {
			return err
		}
		if reporters == 0 {
			return model.ErrUnknownReporter
		}
		existing, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if existing > 0 {
			return model.ErrDuplicateItem
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, itemsIndexKey(""), member)
			pipe.ZAdd(ctx, itemsIndexKey(item.Status), member)
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, model.ErrUnknownReporter), errors.Is(err, model.ErrDuplicateItem):
		return err
	case errors.Is(err, redis.TxFailedErr):
		// Someone else wrote the same item id between the check and the write
		return model.ErrDuplicateItem
	}
	return classify(err)
}

func (s *Storage) GetItem(ctx context.Context, id model.ItemID) (*model.Item, error) {
	data, err := s.client.Get(ctx, itemKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrItemNotFound
		}
		return nil, classify(err)
	}

	var item model.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Storage) ListItems(ctx context.Context, status model.ItemStatus) ([]*model.Item, error) {
	ids, err := s.client.ZRevRange(ctx, itemsIndexKey(status), 0, -1).Result()
	if err != nil {
		return nil, classify(err)
	}
	if len(ids) == 0 {
		return []*model.Item{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKey(model.ItemID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, classify(err)
	}

	items := make([]*model.Item, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var item model.Item
		if err := json.Unmarshal([]byte(str), &item); err != nil {
			continue // Skip invalid data
		}
		items = append(items, &item)
	}
	return items, nil
}
