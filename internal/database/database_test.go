package database_test

import (
	"testing"

	"ecom/internal/database"
	"ecom/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	db, err := database.Open("sqlite", "file:migrate_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, database.Migrate(db))
	for _, table := range []interface{}{&models.User{}, &models.Product{}, &models.CartItem{}, &models.Payment{}, "user_roles"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table for %v", table)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := database.Open("mysql", "")
	assert.Error(t, err)
}
