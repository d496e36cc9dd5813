package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbtracker/internal/app"
	"wbtracker/internal/config"
	"wbtracker/internal/domain"
	"wbtracker/internal/events"
)

func TestOpenWiresJournalAndStats(t *testing.T) {
	ctx := context.Background()
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(config.Path(ws), []byte(config.GenerateDefault("wb")), 0o644))

	rt, err := app.Open(ctx, ws, app.Options{Journal: true})
	require.NoError(t, err)
	res := rt.Engine.OnChatLine(ctx, "24 dwf beamed", domain.Reporter{ID: "u1", Username: "alice"}, domain.Origin{ID: "g1"})
	require.Equal(t, domain.OutcomeAccepted, res.Outcome)
	p, err := rt.Engine.Repo.GetPlayer(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.WorldsReported)
	require.NoError(t, rt.Close())

	files, err := events.Files(app.JournalDir(ws))
	require.NoError(t, err)
	require.Len(t, files, 1)
	var lines []string
	require.NoError(t, events.Read(files[0], func(e events.Entry) error {
		lines = append(lines, e.Line)
		return nil
	}))
	assert.Equal(t, []string{"24 dwf beamed"}, lines)

	// reopening keeps player rows and skips applied migrations
	rt, err = app.Open(ctx, ws, app.Options{})
	require.NoError(t, err)
	defer rt.Close()
	assert.Nil(t, rt.Journal)
	_, err = rt.Engine.Repo.GetPlayer(ctx, "u1")
	assert.NoError(t, err)
}

func TestOpenConfigOverride(t *testing.T) {
	ws := t.TempDir()
	_, err := app.Open(context.Background(), ws, app.Options{})
	assert.ErrorContains(t, err, "wb init")

	path := filepath.Join(t.TempDir(), "other.yml")
	require.NoError(t, os.WriteFile(path, []byte(config.GenerateDefault("x")), 0o644))
	rt, err := app.Open(context.Background(), ws, app.Options{ConfigPath: path})
	require.NoError(t, err)
	defer rt.Close()
	assert.True(t, rt.Config.IsWarbandsChannel("x"))
}
