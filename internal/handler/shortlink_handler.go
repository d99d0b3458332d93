package handler

import (
	"errors"
	"net/http"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"shortlink-proxy/internal/dto"
	"shortlink-proxy/internal/i18n"
	"shortlink-proxy/internal/metrics"
	"shortlink-proxy/internal/service"
	"shortlink-proxy/response"
)

const landingText = "Shortlink Proxy\n\nCreate: /new?url=<encoded url>\nUse proxied URL: /p/<code>"

const landingHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Shortlink Proxy</title></head>
<body>
<h1>Shortlink Proxy</h1>
<form action="/new" method="get">
<input type="url" name="url" placeholder="https://example.com/video.mp4" size="60" required>
<button type="submit">Create</button>
</form>
<p>Use proxied URL: <code>/p/&lt;code&gt;</code></p>
</body>
</html>
`

// ShortLinkHandler 短链相关的 HTTP 处理器
type ShortLinkHandler struct {
	links  *service.ShortLinkService
	relay  *service.RelayService
	ui     bool
	logger *zap.Logger
}

func NewShortLinkHandler(links *service.ShortLinkService, relay *service.RelayService, ui bool, logger *zap.Logger) *ShortLinkHandler {
	return &ShortLinkHandler{links: links, relay: relay, ui: ui, logger: logger}
}

// Landing 首页说明
func (h *ShortLinkHandler) Landing(c *gin.Context) {
	if h.ui {
		response.HTML(c, http.StatusOK, landingHTML)
		return
	}
	response.Text(c, http.StatusOK, landingText)
}

// CreateShortLink GET /new?url=...
func (h *ShortLinkHandler) CreateShortLink(c *gin.Context) {
	var req dto.NewLinkRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Query binding failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
	}

	shortURL, err := h.links.Register(c.Request.Context(), req.URL, c.Request.Host)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Text(c, http.StatusOK, shortURL)
}

// ListShortLinks 每行一条 "<code> -> <url>"
func (h *ShortLinkHandler) ListShortLinks(c *gin.Context) {
	links, err := h.links.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if len(links) == 0 {
		response.Text(c, http.StatusOK, i18n.T(c.Request.Context(), "list.empty", nil, "No links"))
		return
	}

	lines := make([]string, 0, len(links))
	for _, link := range links {
		lines = append(lines, link.Code+" -> "+link.TargetURL)
	}
	response.Text(c, http.StatusOK, strings.Join(lines, "\n"))
}

// ProxyShortLink GET /p/<code>，把上游响应流式转发给客户端
func (h *ShortLinkHandler) ProxyShortLink(c *gin.Context) {
	code := firstSegment(c.Param("code"))

	upstream, err := h.relay.Open(c.Request.Context(), code, c.GetHeader("Range"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer upstream.Body.Close()

	header := c.Writer.Header()
	for name, values := range upstream.Header {
		header[name] = values
	}
	c.Status(upstream.Status)
	c.Writer.WriteHeaderNow()

	written, err := service.Stream(c.Writer, upstream.Body)
	metrics.RelayBytes.Add(float64(written))
	if err != nil {
		metrics.RecordRelay(metrics.RelayStreamAborted)
		level := zap.WarnLevel
		if c.Request.Context().Err() != nil || errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
			level = zap.DebugLevel // 客户端中途断开
		}
		h.logger.Check(level, "Stream aborted").Write(
			zap.String("short_code", code),
			zap.Int64("bytes", written),
			zap.Error(err),
		)
		return
	}
	metrics.RecordRelay(metrics.RelayStreamed)
}

// NotFound 未匹配的路径
func NotFound(c *gin.Context) {
	response.Error(c, notFoundError())
}

// firstSegment 取 /p/ 之后的第一段路径，多余的段被忽略
func firstSegment(param string) string {
	param = strings.TrimPrefix(param, "/")
	if i := strings.IndexByte(param, '/'); i >= 0 {
		return param[:i]
	}
	return param
}
