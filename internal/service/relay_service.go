package service

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"shortlink-proxy/internal/apperrors"
	"shortlink-proxy/internal/config"
	"shortlink-proxy/internal/metrics"
	"shortlink-proxy/internal/repository"
)

const (
	streamBufferSize = 32 * 1024
	// 拒绝上游响应时最多读取的字节数，便于复用连接
	drainLimit = 4 * 1024
)

// 从上游透传的响应头，其余一律丢弃
var passthroughHeaders = []string{"Content-Length", "Accept-Ranges", "Content-Range"}

// Upstream 已通过校验的上游响应，Body 由调用方流式读取并关闭
type Upstream struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

// RelayService 根据短码请求上游并把响应交给调用方流式输出
type RelayService struct {
	store     repository.Store
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewUpstreamClient 上游 HTTP 客户端：限制建连与等待响应头的时间，
// 不设整体超时（大文件需要长时间传输）。跟随重定向使用 net/http 默认策略（最多 10 次）。
func NewUpstreamClient(cfg config.RelayConfig) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.HeaderTimeout,
		ExpectContinueTimeout: time.Second,
		// 字节区间必须对应原始编码，不能让 Transport 自动解压
		DisableCompression: true,
	}
	return &http.Client{Transport: transport}
}

func NewRelayService(store repository.Store, client *http.Client, userAgent string, logger *zap.Logger) *RelayService {
	return &RelayService{
		store:     store,
		client:    client,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Open 解析短码并发起一次上游 GET（不重试）。ctx 取消时上游请求随之中止。
// rangeHeader 非空时原样转发。
func (s *RelayService) Open(ctx context.Context, code, rangeHeader string) (*Upstream, error) {
	if code == "" {
		metrics.RecordRelay(metrics.RelayInvalidRequest)
		return nil, apperrors.Validation("error.code_required", "Missing code")
	}

	link, err := s.store.Get(ctx, code)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		metrics.RecordRelay(metrics.RelayNotFound)
		return nil, apperrors.NotFound("error.not_found", "Not found")
	case errors.Is(err, repository.ErrCorruptRecord):
		metrics.RecordRelay(metrics.RelayInvalidTarget)
		s.logger.Warn("Corrupt short link record", zap.String("short_code", code), zap.Error(err))
		return nil, apperrors.InvalidTarget(err)
	case err != nil:
		metrics.RecordRelay(metrics.RelayStoreError)
		s.logger.Error("Failed to load short link", zap.String("short_code", code), zap.Error(err))
		return nil, apperrors.SystemError(err)
	}

	// 写入时已经校验过，读取时再校验一次
	if err := link.Validate(); err != nil {
		metrics.RecordRelay(metrics.RelayInvalidTarget)
		s.logger.Warn("Stored target failed validation",
			zap.String("short_code", code),
			zap.String("target_url", link.TargetURL),
			zap.Error(err),
		)
		return nil, apperrors.InvalidTarget(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.TargetURL, nil)
	if err != nil {
		metrics.RecordRelay(metrics.RelayInvalidTarget)
		return nil, apperrors.InvalidTarget(err)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	req.Header.Set("User-Agent", s.userAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.UpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RecordRelay(metrics.RelayUpstreamUnavailable)
		level := zap.WarnLevel
		if errors.Is(err, context.Canceled) {
			level = zap.DebugLevel // 客户端已断开
		}
		s.logger.Check(level, "Upstream fetch failed").Write(
			zap.String("short_code", code),
			zap.String("target_url", link.TargetURL),
			zap.Error(err),
		)
		return nil, apperrors.UpstreamUnavailable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
		_ = resp.Body.Close()
		metrics.RecordRelay(metrics.RelayUpstreamStatus)
		s.logger.Warn("Upstream rejected request",
			zap.String("short_code", code),
			zap.String("target_url", link.TargetURL),
			zap.Int("status", resp.StatusCode),
		)
		return nil, apperrors.UpstreamStatus(resp.StatusCode)
	}

	return &Upstream{
		Status: resp.StatusCode,
		Header: curateHeaders(resp.Header),
		Body:   resp.Body,
	}, nil
}

// curateHeaders 只挑选与内容和区间相关的头，并附加禁止缓存与 CORS 头
func curateHeaders(upstream http.Header) http.Header {
	h := make(http.Header)

	contentType := upstream.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	for _, name := range passthroughHeaders {
		if v := upstream.Get(name); v != "" {
			h.Set(name, v)
		}
	}

	h.Set("Cache-Control", "no-store")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Range")
	return h
}

// Stream 分块把 src 写入 dst，每块之后 flush，从不整体缓冲
func Stream(dst io.Writer, src io.Reader) (int64, error) {
	flusher, _ := dst.(http.Flusher)
	buf := make([]byte, streamBufferSize)

	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			w, writeErr := dst.Write(buf[:n])
			written += int64(w)
			if writeErr != nil {
				return written, writeErr
			}
			if w != n {
				return written, io.ErrShortWrite
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
