package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"shortlink-proxy/internal/model"
)

var (
	// ErrNotFound 短码不存在
	ErrNotFound = errors.New("short link not found")
	// ErrCorruptRecord 存储中的值无法按 ShortLink 结构解析
	ErrCorruptRecord = errors.New("corrupt short link record")
)

// Store 短码映射存储。实现必须支持并发调用；单键操作的原子性由后端保证，
// 不提供多步事务。
type Store interface {
	// Get 读取短码对应的记录，不存在时返回 ErrNotFound
	Get(ctx context.Context, code string) (*model.ShortLink, error)
	Exists(ctx context.Context, code string) (bool, error)
	// Set 无条件写入（覆盖同名短码）
	Set(ctx context.Context, link *model.ShortLink) error
	// List 按短码升序枚举全部记录
	List(ctx context.Context) ([]model.ShortLink, error)
	Close() error
}

// Maintainer 需要周期性维护的存储（如 Badger 的 value log GC）
type Maintainer interface {
	RunGC() error
}

// linkRecord 键值类后端中保存的值结构
type linkRecord struct {
	URL     string `json:"url"`
	Created int64  `json:"created"` // 毫秒时间戳
}

func encodeLink(link *model.ShortLink) ([]byte, error) {
	data, err := json.Marshal(linkRecord{
		URL:     link.TargetURL,
		Created: link.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode short link %s: %w", link.Code, err)
	}
	return data, nil
}

func decodeLink(code string, data []byte) (*model.ShortLink, error) {
	var rec linkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, code, err)
	}
	link := &model.ShortLink{
		Code:      code,
		TargetURL: rec.URL,
	}
	if rec.Created != 0 {
		link.CreatedAt = time.UnixMilli(rec.Created)
	}
	return link, nil
}
