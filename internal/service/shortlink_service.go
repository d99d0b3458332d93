package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"shortlink-proxy/constant"
	"shortlink-proxy/internal/apperrors"
	"shortlink-proxy/internal/config"
	"shortlink-proxy/internal/metrics"
	"shortlink-proxy/internal/model"
	"shortlink-proxy/internal/repository"
	"shortlink-proxy/pkg/utils"
)

// ShortLinkService 短链注册与枚举
type ShortLinkService struct {
	store       repository.Store
	gen         Generator
	codeLength  int
	maxAttempts int
	baseURL     string
	logger      *zap.Logger
	now         func() time.Time
}

// NewShortLinkService baseURL 为空时短链前缀取 https://<请求 host>
func NewShortLinkService(store repository.Store, gen Generator, cfg config.ShortLinkConfig, baseURL string, logger *zap.Logger) *ShortLinkService {
	codeLength := cfg.CodeLength
	if codeLength <= 0 {
		codeLength = 6
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 20
	}
	return &ShortLinkService{
		store:       store,
		gen:         gen,
		codeLength:  codeLength,
		maxAttempts: maxAttempts,
		baseURL:     strings.TrimRight(baseURL, "/"),
		logger:      logger,
		now:         time.Now,
	}
}

// Register 校验 rawURL，分配短码并写入存储，返回完整短链
func (s *ShortLinkService) Register(ctx context.Context, rawURL, host string) (string, error) {
	if err := utils.ValidateTargetURL(rawURL); err != nil {
		return "", validationError(err)
	}

	code, err := s.allocateCode(ctx)
	if err != nil {
		return "", err
	}

	link := &model.ShortLink{
		Code:      code,
		TargetURL: rawURL,
		CreatedAt: s.now(),
	}
	// 检查与写入之间没有原子性，并发下极小概率覆盖他人的同名短码
	if err := s.store.Set(ctx, link); err != nil {
		s.logger.Error("Failed to save short link",
			zap.String("short_code", code),
			zap.Error(err),
		)
		return "", apperrors.SystemError(err)
	}
	metrics.LinksRegistered.Inc()

	s.logger.Info("Short link created",
		zap.String("short_code", code),
		zap.String("target_url", rawURL),
	)
	return s.ShortURL(host, code), nil
}

// allocateCode 最多尝试 maxAttempts 次寻找未占用的短码；
// 全部冲突时沿用最后一次生成的短码并记录告警
func (s *ShortLinkService) allocateCode(ctx context.Context) (string, error) {
	var code string
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code = s.gen.Generate(s.codeLength)

		exists, err := s.store.Exists(ctx, code)
		if err != nil {
			s.logger.Error("Failed to check short code",
				zap.String("short_code", code),
				zap.Error(err),
			)
			return "", apperrors.SystemError(err)
		}
		if !exists {
			return code, nil
		}

		metrics.CodeCollisions.Inc()
		s.logger.Debug("Short code already exists, retrying",
			zap.String("short_code", code),
			zap.Int("attempt", attempt),
		)
	}

	metrics.CodeAllocationExhausted.Inc()
	s.logger.Warn("Short code attempts exhausted, overwriting last candidate",
		zap.String("short_code", code),
		zap.Int("attempts", s.maxAttempts),
	)
	return code, nil
}

// ShortURL 拼接对外短链
func (s *ShortLinkService) ShortURL(host, code string) string {
	base := s.baseURL
	if base == "" {
		base = "https://" + host
	}
	return base + constant.ShortPathPrefix + code
}

// List 按短码顺序返回全部映射
func (s *ShortLinkService) List(ctx context.Context) ([]model.ShortLink, error) {
	links, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list short links", zap.Error(err))
		return nil, apperrors.SystemError(err)
	}
	return links, nil
}

func validationError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, utils.ErrTargetURLRequired):
		return apperrors.Validation(err.Error(), "Missing ?url=")
	case errors.Is(err, utils.ErrTargetURLScheme):
		return apperrors.Validation(err.Error(), "URL must start with http:// or https://")
	case errors.Is(err, utils.ErrShortCodeRequired):
		return apperrors.Validation(err.Error(), "Missing code")
	default:
		return apperrors.Validation(err.Error(), "Invalid request")
	}
}
