// Package service 实现计划数据存储、情景注册、覆盖台账和生效值解析。
// 所有写操作在单个事务中完成，失败时整体回滚。
package service

import (
	"log/slog"
	"time"

	"fipli/database"
)

// Service 业务入口，持有注入的 Store
type Service struct {
	store *database.Store
	log   *slog.Logger
	now   func() time.Time
}

// Option 构造选项
type Option func(*Service)

// WithLogger 指定 logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock 指定时钟，用于计划默认创建年份
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New 创建 Service
func New(store *database.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store 返回底层存储
func (s *Service) Store() *database.Store {
	return s.store
}
