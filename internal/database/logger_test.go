package database

import (
	"bytes"
	"testing"

	"ecom/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	db, err := gorm.Open(sqlite.Open("file:gorm_logger_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormLogger(&buf),
	})
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, Migrate(db))
	buf.Reset()

	var user models.User
	err = db.First(&user, "username = ?", "nobody").Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	var rows []models.User
	err = db.Table("no_such_table").Find(&rows).Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), "no_such_table")
}
