package migrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbtracker/internal/db"
	"wbtracker/internal/migrate"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()

	all, err := migrate.All()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	applied, err := migrate.Migrate(ctx, conn)
	require.NoError(t, err)
	assert.Len(t, applied, len(all))

	v, err := migrate.Current(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, all[len(all)-1].Version, v)

	applied, err = migrate.Migrate(ctx, conn)
	require.NoError(t, err)
	assert.Empty(t, applied)
}
