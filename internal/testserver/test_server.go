package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rpggio/spacetracker/internal/app"
	"github.com/rpggio/spacetracker/internal/clock"
	"github.com/rpggio/spacetracker/internal/config"
	"github.com/rpggio/spacetracker/internal/sqlite"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	App    *app.Server
	Clock  *clock.Fake
	Token  string
	UserID string
}

// New starts a backend over a per-test shared-cache in-memory database and
// registers token for userID. mutate, when non-nil, adjusts the default
// configuration first.
func New(t *testing.T, clk *clock.Fake, token, userID string, mutate func(*config.Config)) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())

	backend := app.NewServer(db, cfg, clk, nil)
	server := httptest.NewServer(backend.Router)

	ts := &TestServer{
		Server: server,
		DB:     db,
		App:    backend,
		Clock:  clk,
		Token:  token,
		UserID: userID,
	}

	require.NoError(t, ts.AddAPIKey(token, userID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, userID string) error {
	return ts.App.APIKeys.Add(context.Background(), token, userID, "test")
}

// URL joins path onto the server base URL.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}
