//go:build integration

package testhelpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/database"
)

func TestGetTestDB_MigrationsApplied(t *testing.T) {
	testDB := GetTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"pi20_data_model", "mapping_corrections"} {
		var exists bool
		err := testDB.DB.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s should exist after migrations", table)
	}
}

func TestGetTestRedis_Ping(t *testing.T) {
	client := GetTestRedis(t)
	require.NoError(t, client.Ping(context.Background()).Err())
}

func TestMigrateURL_Idempotent(t *testing.T) {
	testDB := GetTestDB(t)

	require.NoError(t, database.MigrateURL(testDB.ConnStr, MigrationsDir(), zap.NewNop()))
}
