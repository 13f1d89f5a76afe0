// Package repository 数据库无关的业务逻辑存储层
//
// 通过 dbutil.Dialect 接口屏蔽不同数据库的 SQL 差异，
// 所有 SQL 以 PostgreSQL 风格编写，运行时由 Dialect.Rebind() 转换。
package repository

import (
	"database/sql"
	"fmt"
	"time"

	"olapp/internal/shared/storage/dbutil"
	"olapp/internal/shared/storagetypes"
	"olapp/pkg/logging"
)

// Store 通用存储实现
// 实现了 storage.PersistentStore 接口
type Store struct {
	db      *sql.DB
	dialect dbutil.Dialect
	logger  *logging.Logger
}

// NewStore 创建通用存储
func NewStore(db *sql.DB, dialect dbutil.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}

// SetLogger 设置查询日志器，为 nil 时不记录
func (s *Store) SetLogger(l *logging.Logger) {
	s.logger = l
}

// logQuery 记录关键事务的耗时和错误
func (s *Store) logQuery(operation, table string, start time.Time, err error) {
	if s.logger == nil {
		return
	}
	s.logger.DBQueryLog(operation, table, time.Since(start), err)
}

// DB 返回底层数据库连接（仅用于测试）
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect 返回当前方言
func (s *Store) Dialect() dbutil.Dialect {
	return s.dialect
}

// rebind 快捷方法：将 PG 风格 SQL 转换为当前方言
func (s *Store) rebind(query string) string {
	return s.dialect.Rebind(query)
}

// mapWriteErr 将驱动层的唯一键冲突转换为领域错误
func (s *Store) mapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if s.dialect.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, storagetypes.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// requireAffected 0 行受影响时返回 ErrNotFound
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storagetypes.ErrNotFound)
	}
	return nil
}

// rowScanner 同时适配 *sql.Row 和 *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}
