package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"shortlink-proxy/internal/model"
	"shortlink-proxy/pkg/logging"
)

// OpenDB 按驱动名打开数据库并自动迁移短链表
func OpenDB(driver, dsn string, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormLogger(logger, logging.ToGormLogLevel(logging.AtomicLevel.Level())),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(&model.ShortLink{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// GormStore 基于 gorm 的 SQL 存储（mysql / sqlite）
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	var link model.ShortLink
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query short link: %w", err)
	}
	return &link, nil
}

func (s *GormStore) Exists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.ShortLink{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count short link: %w", err)
	}
	return count > 0, nil
}

// Set 以 upsert 方式写入，与键值后端的覆盖语义一致
func (s *GormStore) Set(ctx context.Context, link *model.ShortLink) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(link).Error
	if err != nil {
		return fmt.Errorf("save short link: %w", err)
	}
	return nil
}

func (s *GormStore) List(ctx context.Context) ([]model.ShortLink, error) {
	var links []model.ShortLink
	if err := s.db.WithContext(ctx).Order("code ASC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list short links: %w", err)
	}
	return links, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
