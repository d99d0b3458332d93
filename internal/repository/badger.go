package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
	"shortlink-proxy/constant"
	"shortlink-proxy/internal/model"
	"shortlink-proxy/pkg/logging"
)

// BadgerStore 基于 BadgerDB 的嵌入式持久化存储。
// 键按字节序排列，前缀遍历天然按短码升序。
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore 打开（或创建）path 下的 Badger 数据目录；path 为空时使用内存模式
func OpenBadgerStore(path string, logger *zap.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(logging.NewBadgerLogger(logger))
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return NewBadgerStore(db), nil
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Get(_ context.Context, code string) (*model.ShortLink, error) {
	var link *model.ShortLink

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(constant.GetBadgerLinkKey(code))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get short link: %w", err)
		}

		return item.Value(func(val []byte) error {
			link, err = decodeLink(code, val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *BadgerStore) Exists(_ context.Context, code string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(constant.GetBadgerLinkKey(code))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check short link: %w", err)
	}
	return true, nil
}

func (s *BadgerStore) Set(_ context.Context, link *model.ShortLink) error {
	data, err := encodeLink(link)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(constant.GetBadgerLinkKey(link.Code), data); err != nil {
			return fmt.Errorf("set short link: %w", err)
		}
		return nil
	})
}

// List 前缀遍历 proxy/，无法解析的记录被跳过
func (s *BadgerStore) List(ctx context.Context) ([]model.ShortLink, error) {
	var links []model.ShortLink

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := constant.GetBadgerLinkPrefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			code := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				link, err := decodeLink(code, val)
				if err != nil {
					return nil
				}
				links = append(links, *link)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list short links: %w", err)
	}
	return links, nil
}

// RunGC 回收 value log，直到没有可回收的文件
func (s *BadgerStore) RunGC() error {
	for {
		err := s.db.RunValueLogGC(0.5)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			return nil
		default:
			return fmt.Errorf("badger value log gc: %w", err)
		}
	}
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
