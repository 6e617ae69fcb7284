// Package repotest 给各层测试提供内存 SQLite 上的 Store。
package repotest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"carpool/internal/core/database"
	"carpool/internal/repo"
)

var seq atomic.Int64

// Open 每个测试一个独立的内存库
func Open(t testing.TB) (*repo.Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:carpool_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxOpenConns: 1,
		LogLevel:     "silent",
		Logger:       zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	s := repo.NewStore(db)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return s, db
}
