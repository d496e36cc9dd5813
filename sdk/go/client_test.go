package wbsdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbtracker/internal/config"
	"wbtracker/internal/engine"
	"wbtracker/internal/server"
	wbsdk "wbtracker/sdk/go"
)

func newClient(t *testing.T) *wbsdk.Client {
	t.Helper()
	// Registry only; player statistics stay disabled without a database.
	cfg, err := config.Default("wb")
	require.NoError(t, err)
	e, err := engine.New(nil, cfg, nil)
	require.NoError(t, err)
	clock := time.Date(2024, 3, 6, 18, 5, 0, 0, time.UTC)
	e.Now = func() time.Time { return clock }
	h, err := server.New(server.Config{Engine: e, BasePath: "/v0", Auth: server.AuthConfig{JWTSecret: "s"}})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return wbsdk.New(srv.URL)
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	who := wbsdk.Reporter{ID: "u1", Username: "alice"}
	origin := wbsdk.Origin{ID: "g1"}

	res, err := c.SubmitReport(ctx, "24 dwf beamed pk 2:30", who, origin)
	require.NoError(t, err)
	assert.Equal(t, "accepted", res.Outcome)
	assert.True(t, res.Created)
	require.NotNil(t, res.Record)
	assert.Equal(t, "dwf", res.Record.Location)

	_, err = c.SubmitReport(ctx, "9 elm h", who, origin)
	require.NoError(t, err)

	worlds, err := c.Worlds(ctx, "")
	require.NoError(t, err)
	require.Len(t, worlds, 2)
	assert.Equal(t, 24, worlds[0].World)
	require.NotNil(t, worlds[0].Remaining)
	assert.Equal(t, 2, worlds[0].Remaining.Initial.Minutes)

	herb, err := c.Worlds(ctx, "h")
	require.NoError(t, err)
	require.Len(t, herb, 1)
	assert.Equal(t, 9, herb[0].World)

	list, err := c.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, list, "**__24__**")

	table, err := c.Table(ctx)
	require.NoError(t, err)
	assert.Contains(t, table, "RDI")

	timelist, err := c.Timelist(ctx)
	require.NoError(t, err)
	assert.Contains(t, timelist, "2:30")

	sched, err := c.Schedule(ctx, "utc")
	require.NoError(t, err)
	assert.Equal(t, 0, sched.OffsetHours)
	require.NotNil(t, sched.NextEvent)
	assert.Equal(t, 21, sched.NextEvent.UTC().Hour())
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	_, err := c.Worlds(ctx, "gold")
	var apiErr *wbsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	err = c.ClearWorlds(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	token, err := server.SignToken("s", "ops", []string{server.AdminRole})
	require.NoError(t, err)
	c.BearerToken = token
	require.NoError(t, c.ClearWorlds(ctx))
}
