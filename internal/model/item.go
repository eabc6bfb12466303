package model

import "time"

// ItemID uniquely identifies a reported item
type ItemID string

// ItemStatus says whether an item was lost or found
type ItemStatus string

const (
	ItemStatusLost  ItemStatus = "lost"
	ItemStatusFound ItemStatus = "found"
)

// Valid reports whether s is a known status
func (s ItemStatus) Valid() bool {
	return s == ItemStatusLost || s == ItemStatusFound
}

// Coordinates is an optional map position for an item
type Coordinates struct {
	Lat float64
	Lng float64
}

// Item is a lost or found report
type Item struct {
	ID          ItemID
	Title       string
	Description string
	Location    string
	Status      ItemStatus
	ReporterID  AccountID
	ImageURL    string
	Coordinates *Coordinates
	ReportedAt  time.Time
}
