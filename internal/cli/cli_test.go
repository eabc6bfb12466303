package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/lostfound/internal/api"
	"github.com/mcoot/lostfound/internal/factory"
	"github.com/mcoot/lostfound/internal/testutil"
)

type CLISuite struct {
	suite.Suite
	server    *httptest.Server
	tokenFile string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	app := factory.NewTestApp()
	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		AuthService: app.AuthService,
		ItemService: app.ItemService,
		HealthCheck: app.Storage.Ping,
	}))
	s.tokenFile = filepath.Join(s.T().TempDir(), "token")
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
}

// run executes the CLI with JSON output and returns stdout
func (s *CLISuite) run(args ...string) (string, error) {
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{
		"--server", s.server.URL,
		"--token-file", s.tokenFile,
		"--output", "json",
	}, args...))

	err := cmd.Execute()
	return stdout.String(), err
}

func (s *CLISuite) TestHealth() {
	out, err := s.run("health")
	s.Require().NoError(err)

	var result HealthResult
	s.Require().NoError(json.Unmarshal([]byte(out), &result))
	s.Equal("ok", result.Status)
}

func (s *CLISuite) TestHealthReportsUnavailableStore() {
	app := factory.NewTestApp()
	down := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		AuthService: app.AuthService,
		ItemService: app.ItemService,
		HealthCheck: func(context.Context) error { return errors.New("store down") },
	}))
	defer down.Close()

	out, err := s.run("health", "--server", down.URL)
	s.Require().ErrorIs(err, ErrUnhealthy)

	var result HealthResult
	s.Require().NoError(json.Unmarshal([]byte(out), &result))
	s.Equal("unavailable", result.Status)
}

func (s *CLISuite) TestInvalidSettingsRejectedBeforeRequest() {
	_, err := s.run("health", "--server", "localhost:8080")
	s.ErrorContains(err, "--server")

	_, err = s.run("health", "--output", "yaml")
	s.ErrorContains(err, "--output")
}

func (s *CLISuite) TestLogoutForgetsToken() {
	_, err := s.run("signup", "--email", "a@x.com", "--pass", "pw1", "--name", "A")
	s.Require().NoError(err)
	_, err = s.run("login", "--email", "a@x.com", "--pass", "pw1")
	s.Require().NoError(err)

	_, err = s.run("logout")
	s.Require().NoError(err)
	s.NoFileExists(s.tokenFile)

	_, err = s.run("me")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(403, apiErr.StatusCode)

	// Logging out twice is fine
	_, err = s.run("logout")
	s.NoError(err)
}

func (s *CLISuite) TestSignupLoginMe() {
	out, err := s.run("signup", "--email", "a@x.com", "--pass", "pw1", "--name", "A")
	s.Require().NoError(err, out)

	var signup SignupResult
	s.Require().NoError(json.Unmarshal([]byte(out), &signup))
	s.Equal("a@x.com", signup.User.Email)

	_, err = s.run("login", "--email", "a@x.com", "--pass", "pw1")
	s.Require().NoError(err)

	saved, err := os.ReadFile(s.tokenFile)
	s.Require().NoError(err)
	s.NotEmpty(saved)

	// The saved token is picked up without --token
	out, err = s.run("me")
	s.Require().NoError(err)
	var me User
	s.Require().NoError(json.Unmarshal([]byte(out), &me))
	s.Equal(signup.User.ID, me.ID)

	out, err = s.run("accounts")
	s.Require().NoError(err)
	var users UsersResult
	s.Require().NoError(json.Unmarshal([]byte(out), &users))
	s.Len(users.Users, 1)
}

func (s *CLISuite) TestMeWithoutLoginFails() {
	_, err := s.run("me")
	s.Require().Error(err)

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(403, apiErr.StatusCode)
	s.Equal("UNAUTHORIZED", apiErr.Code)
}

func (s *CLISuite) TestWrongPassword() {
	_, err := s.run("signup", "--email", "a@x.com", "--pass", "pw1", "--name", "A")
	s.Require().NoError(err)

	_, err = s.run("login", "--email", "a@x.com", "--pass", "nope")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("INVALID_CREDENTIALS", apiErr.Code)
}

func (s *CLISuite) TestReportAndListItems() {
	_, err := s.run("signup", "--email", "a@x.com", "--pass", "pw1", "--name", "A")
	s.Require().NoError(err)
	_, err = s.run("login", "--email", "a@x.com", "--pass", "pw1")
	s.Require().NoError(err)

	out, err := s.run("items", "report", "--title", "Keys", "--location", "Library",
		"--status", "lost", "--lat", "1.5", "--lng", "2.5")
	s.Require().NoError(err, out)

	var reported ItemResult
	s.Require().NoError(json.Unmarshal([]byte(out), &reported))
	s.Require().NotNil(reported.Item.Coordinates)

	out, err = s.run("items", "list", "--status", "lost")
	s.Require().NoError(err)
	var lost []Item
	s.Require().NoError(json.Unmarshal([]byte(out), &lost))
	s.Require().Len(lost, 1)
	s.Equal("Keys", lost[0].Title)

	out, err = s.run("items", "get", reported.Item.ID)
	s.Require().NoError(err)
	var got Item
	s.Require().NoError(json.Unmarshal([]byte(out), &got))
	s.Equal(reported.Item.ID, got.ID)
}

func (s *CLISuite) TestReportRejectsHalfCoordinates() {
	_, err := s.run("items", "report", "--title", "Keys", "--location", "Library",
		"--status", "lost", "--lat", "1.5")
	s.Error(err)
}

func (s *CLISuite) TestListRejectsUnknownStatus() {
	_, err := s.run("items", "list", "--status", "stolen")
	s.Error(err)
}

func (s *CLISuite) TestChangePassword() {
	_, err := s.run("signup", "--email", "a@x.com", "--pass", "pw1", "--name", "A")
	s.Require().NoError(err)
	_, err = s.run("login", "--email", "a@x.com", "--pass", "pw1")
	s.Require().NoError(err)

	_, err = s.run("password", "--current", "pw1", "--new", "pw2")
	s.Require().NoError(err)

	_, err = s.run("login", "--email", "a@x.com", "--pass", "pw2")
	s.NoError(err)
}
