package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case SignupResult:
		_, _ = fmt.Fprintln(o.w, v.Message)
		o.printUser(v.User)
	case UsersResult:
		o.printUsers(v.Users)
	case LoginResult:
		o.printLoginResult(v)
	case Item:
		o.printItem(v)
	case ItemResult:
		_, _ = fmt.Fprintln(o.w, v.Message)
		o.printItem(v.Item)
	case []Item:
		o.printItems(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SignupResult is the response to signup
type SignupResult struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// UsersResult is the response to listing accounts
type UsersResult struct {
	Message string `json:"message"`
	Users   []User `json:"users"`
}

// LoginResult carries the issued token
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Coordinates response type
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Item response type
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

// ItemResult is the response to reporting an item
type ItemResult struct {
	Message string `json:"message"`
	Item    Item   `json:"item"`
}

// HealthResult response type
type HealthResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

func (o *Output) printUser(u User) {
	_, _ = fmt.Fprintf(o.w, "User: %s <%s> (%s)\n", u.Name, u.Email, u.ID)
	_, _ = fmt.Fprintf(o.w, "Created: %s\n", u.CreatedAt.Format(time.RFC3339))
}

func (o *Output) printUsers(users []User) {
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tEMAIL\tNAME")
	for _, u := range users {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Email, u.Name)
	}
	_ = tw.Flush()
}

func (o *Output) printLoginResult(l LoginResult) {
	_, _ = fmt.Fprintln(o.w, "Logged in")
	_, _ = fmt.Fprintf(o.w, "Token expires: %s\n", l.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printItem(i Item) {
	_, _ = fmt.Fprintf(o.w, "Item: %s (%s)\n", i.Title, i.ID)
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", i.Status)
	_, _ = fmt.Fprintf(o.w, "Location: %s\n", i.Location)
	if i.Description != "" {
		_, _ = fmt.Fprintf(o.w, "Description: %s\n", i.Description)
	}
	if i.Coordinates != nil {
		_, _ = fmt.Fprintf(o.w, "Coordinates: %.5f, %.5f\n", i.Coordinates.Lat, i.Coordinates.Lng)
	}
	if i.ImageURL != "" {
		_, _ = fmt.Fprintf(o.w, "Image: %s\n", i.ImageURL)
	}
	_, _ = fmt.Fprintf(o.w, "Reported: %s by %s\n", i.ReportedAt.Format(time.RFC3339), i.ReporterID)
}

func (o *Output) printItems(items []Item) {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(o.w, "No items")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tLOCATION\tREPORTED")
	for _, i := range items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", i.ID, i.Status, i.Title, i.Location, i.ReportedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s (%dms)\n", h.Status, h.LatencyMS)
}
