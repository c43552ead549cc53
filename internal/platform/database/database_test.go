package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"studynotes/internal/model"
)

func openMock(t *testing.T, dialect string) *gorm.DB {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	var dialector gorm.Dialector
	switch dialect {
	case "mysql":
		dialector = mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true})
	case "postgres":
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	return db
}

func columnTypes(t *testing.T, db *gorm.DB, value interface{}) map[string]string {
	t.Helper()
	stmt := &gorm.Statement{DB: db}
	require.NoError(t, stmt.Parse(value))
	out := make(map[string]string)
	for _, field := range stmt.Schema.Fields {
		if field.DBName == "" {
			continue
		}
		out[field.DBName] = db.Migrator().FullDataTypeOf(field).SQL
	}
	return out
}

func TestLongTextColumnsPerDialect(t *testing.T) {
	tests := []struct {
		dialect string
		want    string
	}{
		{dialect: "mysql", want: "longtext"},
		{dialect: "postgres", want: "text"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			db := openMock(t, tt.dialect)

			notes := columnTypes(t, db, &model.Note{})
			assert.Equal(t, tt.want, notes["summary"])
			assert.Equal(t, tt.want, notes["content"])
			assert.Equal(t, tt.want, notes["questions"])
			assert.Equal(t, "varchar(255) NOT NULL", notes["title"])

			materials := columnTypes(t, db, &model.StudyMaterial{})
			assert.Equal(t, tt.want, materials["summary"])
		})
	}
}

func TestGormLoggerWritesThroughZap(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gl := NewGormLogger(zap.New(core), "prod")

	gl.Warn(context.Background(), "slow query on %s", "notes")
	gl.Info(context.Background(), "only in dev")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "gorm", entries[0].LoggerName)
	assert.Contains(t, entries[0].Message, "slow query on notes")
}
