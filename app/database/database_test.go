package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

func TestDatabase_Lifecycle(t *testing.T) {
	ctx := context.Background()

	d, err := New(sqlite.Open(":memory:"), zap.NewNop(), 0)
	require.NoError(t, err)
	sqlDB, err := d.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Run("init creates the products table", func(t *testing.T) {
		require.NoError(t, d.Init())
		assert.True(t, d.DB.Migrator().HasTable("products"))
	})

	t.Run("init is idempotent", func(t *testing.T) {
		require.NoError(t, d.Init())
		require.NoError(t, d.Init())
		assert.True(t, d.DB.Migrator().HasIndex("products", "idx_products_name"))
	})

	t.Run("ping succeeds while open", func(t *testing.T) {
		assert.NoError(t, d.Ping(ctx))
	})

	t.Run("ping fails after close", func(t *testing.T) {
		require.NoError(t, d.Close())
		assert.Error(t, d.Ping(ctx))
	})
}
