package database

import (
	"testing"

	"edhaus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle", DSN: "x"}, nil)
	assert.Error(t, err)
}

func TestOpen_GormLogsGoThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	db, err := Open(Config{Driver: DriverSQLite, DSN: "file:gormlogs?mode=memory&cache=shared"}, zap.New(core))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, Migrate(db))

	var product models.Product
	err = db.First(&product, "id = ?", "missing").Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.FilterLoggerName("gorm").Len())

	err = db.Exec("SELECT * FROM no_such_table").Error
	assert.Error(t, err)
	failures := logs.FilterMessageSnippet("no_such_table").All()
	require.NotEmpty(t, failures)
	assert.Equal(t, "gorm", failures[0].LoggerName)
	assert.NotContains(t, failures[0].Message, "\x1b[")
}
