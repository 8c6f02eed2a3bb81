package testutil

import (
	"os"
	"sync"
	"testing"

	"qpgen_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	dbOnce   sync.Once
	sharedDB *gorm.DB
	dbErr    error
)

// DB 返回集成测试共享的数据库连接，未设置 TEST_MYSQL_DSN 时跳过当前测试。
// 例: TEST_MYSQL_DSN='root:root@tcp(127.0.0.1:3306)/qpgen_test?charset=utf8mb4&parseTime=true'
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		tb.Skip("set TEST_MYSQL_DSN to run database integration tests")
	}

	dbOnce.Do(func() {
		sharedDB, dbErr = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if dbErr != nil {
			return
		}
		dbErr = sharedDB.AutoMigrate(
			&model.User{},
			&model.Course{},
			&model.Material{},
			&model.Section{},
			&model.GenerationJob{},
			&model.Question{},
			&model.QuestionFeedback{},
			&model.PaperPattern{},
		)
	})
	if dbErr != nil {
		tb.Fatalf("open test database: %v", dbErr)
	}
	return sharedDB
}

// Tx 把整个用例包进一个事务，结束时回滚，用例之间互不污染
func Tx(tb testing.TB) *gorm.DB {
	tb.Helper()

	tx := DB(tb).Begin()
	if tx.Error != nil {
		tb.Fatalf("begin test transaction: %v", tx.Error)
	}
	tb.Cleanup(func() {
		tx.Rollback()
	})
	return tx
}
