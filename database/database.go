package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fipli/config"
	"fipli/logging"
	"fipli/models"
)

// Store 持有数据库连接，由调用方显式打开和关闭
type Store struct {
	db     *gorm.DB
	driver string
}

// Open 按配置打开数据库并执行自动迁移
func Open(cfg config.DatabaseConfig, log *slog.Logger) (*Store, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.GormLogger(log, cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverMySQL {
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
	} else {
		// SQLite 同一时刻只允许一个写连接
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	s := &Store{db: db, driver: cfg.Driver}
	if err := s.Migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// New 包装一个已打开的 gorm 连接（测试中配合 sqlmock 使用），不执行迁移
func New(db *gorm.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.Username,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
		)
		return mysql.Open(dsn), nil
	case config.DriverSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite 数据库路径不能为空")
		}
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("创建数据库目录失败: %w", err)
			}
		}
		timeout := cfg.BusyTimeoutMS
		if timeout <= 0 {
			timeout = 5000
		}
		dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d&_foreign_keys=on",
			cfg.Path, timeout)
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// Migrate 自动迁移全部表，可重复执行
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("迁移数据库失败: %w", err)
	}
	return nil
}

// Tables 返回当前库中已迁移的业务表名
func (s *Store) Tables() ([]string, error) {
	var names []string
	migrator := s.db.Migrator()
	for _, m := range models.All() {
		stmt := &gorm.Statement{DB: s.db}
		if err := stmt.Parse(m); err != nil {
			return nil, err
		}
		if migrator.HasTable(stmt.Schema.Table) {
			names = append(names, stmt.Schema.Table)
		}
	}
	return names, nil
}

// DB 返回绑定 ctx 的连接
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Driver 当前驱动名
func (s *Store) Driver() string {
	return s.driver
}

// Transaction 在单个事务中执行 fn，fn 返回错误时整体回滚。
// fn 内部只能使用传入的 tx，SQLite 只有一个连接，再用 DB() 会阻塞。
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// Close 关闭底层连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
