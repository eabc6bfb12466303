package factory

import (
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/lostfound/internal/dependencies/mocks"
	"github.com/mcoot/lostfound/internal/services/password"
	"github.com/mcoot/lostfound/internal/services/token"
	"github.com/mcoot/lostfound/internal/storage/memory"
)

// TestSecret signs tokens in apps built by NewTestApp
const TestSecret = "test-signing-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App on in-memory storage with a mock clock,
// sequential ids and the cheapest bcrypt cost
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	hasher, err := password.New(password.Config{Cost: bcrypt.MinCost, Workers: 4})
	if err != nil {
		panic(err)
	}
	tokens, err := token.New(token.Config{Secret: TestSecret}, mockClock)
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	app := newWithDependencies(store, mockClock, mockRandom, hasher, tokens, 0, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
