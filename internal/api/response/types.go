package response

import (
	"time"

	"github.com/mcoot/lostfound/internal/model"
)

// User is an account as seen by clients. It never carries the password hash.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromModel converts a model.Account to a response User
func UserFromModel(a *model.Account) User {
	return User{
		ID:        string(a.ID),
		Email:     a.Email,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
	}
}

// UsersFromModel converts a slice of accounts
func UsersFromModel(accounts []*model.Account) []User {
	users := make([]User, len(accounts))
	for i, a := range accounts {
		users[i] = UserFromModel(a)
	}
	return users
}

// SignupResponse is the response for POST /signup
type SignupResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// UsersResponse is the response for GET /signup
type UsersResponse struct {
	Message string `json:"message"`
	Users   []User `json:"users"`
}

// LoginResponse is the response for POST /login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Coordinates is a map position
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Item is a lost or found report
type Item struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Location    string       `json:"location"`
	Status      string       `json:"status"`
	ReporterID  string       `json:"reporter_id"`
	ImageURL    string       `json:"image_url,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	ReportedAt  time.Time    `json:"reported_at"`
}

// ItemFromModel converts a model.Item to a response Item
func ItemFromModel(i *model.Item) Item {
	item := Item{
		ID:          string(i.ID),
		Title:       i.Title,
		Description: i.Description,
		Location:    i.Location,
		Status:      string(i.Status),
		ReporterID:  string(i.ReporterID),
		ImageURL:    i.ImageURL,
		ReportedAt:  i.ReportedAt,
	}
	if i.Coordinates != nil {
		item.Coordinates = &Coordinates{Lat: i.Coordinates.Lat, Lng: i.Coordinates.Lng}
	}
	return item
}

// ItemsFromModel converts a slice of items
func ItemsFromModel(items []*model.Item) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = ItemFromModel(item)
	}
	return out
}

// ItemResponse is the response for POST /items
type ItemResponse struct {
	Message string `json:"message"`
	Item    Item   `json:"item"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status string `json:"status"`
}
