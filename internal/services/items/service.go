// Package items records lost and found reports made by authenticated
// accounts and serves them back for browsing.
package items

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/mcoot/lostfound/internal/dependencies/clock"
	"github.com/mcoot/lostfound/internal/dependencies/random"
	"github.com/mcoot/lostfound/internal/model"
	"github.com/mcoot/lostfound/internal/storage"
)

// Coordinates is an optional position attached to a report
type Coordinates struct {
	Lat float64
	Lng float64
}

// Validate checks the coordinates are on the globe
func (c Coordinates) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Lat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&c.Lng, validation.Min(-180.0), validation.Max(180.0)),
	)
}

// ReportInput is the data needed to report an item
type ReportInput struct {
	Title       string
	Description string
	Location    string
	Status      string
	ImageURL    string
	Coordinates *Coordinates
}

// Validate checks the input fields
func (in ReportInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Description, validation.Length(0, 2000)),
		validation.Field(&in.Location, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Status, validation.Required,
			validation.In(string(model.ItemStatusLost), string(model.ItemStatusFound))),
		validation.Field(&in.ImageURL, is.URL),
		validation.Field(&in.Coordinates),
	)
}

// Config holds configuration for the item service
type Config struct {
	OperationTimeout time.Duration
}

// DefaultConfig returns default item service configuration
func DefaultConfig() Config {
	return Config{
		OperationTimeout: 5 * time.Second,
	}
}

// Service handles item reports
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     random.Source
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a new item Service
func New(storage storage.Storage, clock clock.Clock, ids random.Source, cfg Config, logger *slog.Logger) *Service {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = DefaultConfig().OperationTimeout
	}
	return &Service{
		storage: storage,
		clock:   clock,
		ids:     ids,
		logger:  logger,
		timeout: cfg.OperationTimeout,
	}
}

// Report records a new item on behalf of reporter
func (s *Service) Report(ctx context.Context, reporter model.AccountID, in ReportInput) (*model.Item, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}

	item := &model.Item{
		ID:          model.ItemID(s.ids.NewID()),
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Status:      model.ItemStatus(in.Status),
		ReporterID:  reporter,
		ImageURL:    in.ImageURL,
		ReportedAt:  s.clock.Now(),
	}
	if in.Coordinates != nil {
		item.Coordinates = &model.Coordinates{Lat: in.Coordinates.Lat, Lng: in.Coordinates.Lng}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.storage.CreateItem(ctx, item); err != nil {
		return nil, mapErr(err)
	}

	s.logger.Info("item reported", "item_id", item.ID, "status", item.Status, "reporter_id", reporter)
	return item, nil
}

// Get returns a single item
func (s *Service) Get(ctx context.Context, id model.ItemID) (*model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	item, err := s.storage.GetItem(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return item, nil
}

// List returns items with the given status, newest first. An empty status
// lists everything.
func (s *Service) List(ctx context.Context, status model.ItemStatus) ([]*model.Item, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidInput, status)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, err := s.storage.ListItems(ctx, status)
	if err != nil {
		return nil, mapErr(err)
	}
	return items, nil
}

func mapErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", model.ErrTimeout, err)
	}
	return err
}
