package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"shortlink-proxy/internal/config"
	"shortlink-proxy/internal/i18n"
	"shortlink-proxy/internal/model"
	"shortlink-proxy/internal/repository"
	"shortlink-proxy/internal/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testApp struct {
	router *gin.Engine
	store  *repository.MemoryStore
}

func newTestApp(t *testing.T, ui bool) *testApp {
	t.Helper()
	store := repository.NewMemoryStore()
	logger := zap.NewNop()
	relayCfg := config.RelayConfig{UserAgent: "test-agent", ConnectTimeout: 2 * time.Second, HeaderTimeout: 2 * time.Second}

	links := service.NewShortLinkService(store, service.RandomGenerator{}, config.ShortLinkConfig{CodeLength: 6, MaxAttempts: 20}, "", logger)
	relay := service.NewRelayService(store, service.NewUpstreamClient(relayCfg), relayCfg.UserAgent, logger)

	tr, err := i18n.New("en")
	if err != nil {
		t.Fatal(err)
	}
	router := NewRouter(RouterDeps{
		ShortLinks: NewShortLinkHandler(links, relay, ui, logger),
		Translator: tr,
		Logger:     logger,
	})
	return &testApp{router: router, store: store}
}

func (a *testApp) do(method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Host = "proxy.test"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) seed(t *testing.T, code, target string) {
	t.Helper()
	if err := a.store.Set(context.Background(), &model.ShortLink{Code: code, TargetURL: target, CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
}

func TestLanding(t *testing.T) {
	w := newTestApp(t, false).do(http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Create: /new?url=<encoded url>") {
		t.Errorf("body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	w = newTestApp(t, true).do(http.MethodGet, "/", nil)
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("ui Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), `<form action="/new"`) {
		t.Errorf("ui body missing form")
	}
}

// 注册一个视频地址，再带 Range 访问短链
func TestRegisterThenProxyRange(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefghij"), 100)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		http.ServeContent(w, r, "clip.mp4", time.Time{}, bytes.NewReader(payload))
	}))
	defer upstream.Close()

	app := newTestApp(t, false)
	target := upstream.URL + "/clip.mp4"

	w := app.do(http.MethodGet, "/new?url="+url.QueryEscape(target), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("/new status = %d body = %q", w.Code, w.Body.String())
	}
	shortURL := w.Body.String()
	const prefix = "https://proxy.test/p/"
	if !strings.HasPrefix(shortURL, prefix) || len(shortURL) != len(prefix)+6 {
		t.Fatalf("short url = %q", shortURL)
	}
	code := strings.TrimPrefix(shortURL, prefix)

	w = app.do(http.MethodGet, "/p/"+code, map[string]string{"Range": "bytes=0-9"})
	if w.Code != http.StatusPartialContent {
		t.Fatalf("/p status = %d body = %q", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "abcdefghij" {
		t.Errorf("body = %q", got)
	}
	wantHeaders := map[string]string{
		"Content-Type":                "video/mp4",
		"Content-Range":               fmt.Sprintf("bytes 0-9/%d", len(payload)),
		"Content-Length":              "10",
		"Accept-Ranges":               "bytes",
		"Cache-Control":               "no-store",
		"Access-Control-Allow-Origin": "*",
	}
	for name, want := range wantHeaders {
		if got := w.Header().Get(name); got != want {
			t.Errorf("header %s = %q, want %q", name, got, want)
		}
	}

	// 不带 Range 时完整输出
	w = app.do(http.MethodGet, "/p/"+code+"/ignored/segments", nil)
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), payload) {
		t.Errorf("full fetch status = %d, %d bytes", w.Code, w.Body.Len())
	}
}

func TestErrorResponses(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	app := newTestApp(t, false)
	app.seed(t, "err500", failing.URL)
	app.seed(t, "ftp001", "ftp://files.example.com/a.bin")

	tests := []struct {
		name   string
		method string
		target string
		header map[string]string
		status int
		body   string
	}{
		{"missing url", http.MethodGet, "/new", nil, http.StatusBadRequest, "Missing ?url="},
		{"bad scheme", http.MethodGet, "/new?url=notaurl", nil, http.StatusBadRequest, "URL must start with http:// or https://"},
		{"missing code", http.MethodGet, "/p/", nil, http.StatusBadRequest, "Missing code"},
		{"unknown code", http.MethodGet, "/p/zzzzzz", nil, http.StatusNotFound, "Not found"},
		{"invalid stored target", http.MethodGet, "/p/ftp001", nil, http.StatusBadRequest, "Invalid target URL"},
		{"upstream 500", http.MethodGet, "/p/err500", nil, http.StatusBadGateway, "Upstream error: 500"},
		{"unknown path", http.MethodGet, "/nope", nil, http.StatusNotFound, "Not found"},
		{"wrong method", http.MethodPost, "/new", nil, http.StatusNotFound, "Not found"},
		{"localized", http.MethodGet, "/p/zzzzzz", map[string]string{"Accept-Language": "zh-CN,zh;q=0.9"}, http.StatusNotFound, "未找到"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(tt.method, tt.target, tt.header)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if got := w.Body.String(); got != tt.body {
				t.Errorf("body = %q, want %q", got, tt.body)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestUpstreamUnreachable(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	app := newTestApp(t, false)
	app.seed(t, "down01", closedURL)

	w := app.do(http.MethodGet, "/p/down01", nil)
	if w.Code != http.StatusBadGateway || w.Body.String() != "Upstream fetch failed" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}

func TestPreflight(t *testing.T) {
	w := newTestApp(t, false).do(http.MethodOptions, "/p/abc123", map[string]string{
		"Origin":                        "https://player.example",
		"Access-Control-Request-Method": "GET",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Range" {
		t.Errorf("Allow-Headers = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, OPTIONS" {
		t.Errorf("Allow-Methods = %q", got)
	}
}

func TestList(t *testing.T) {
	app := newTestApp(t, false)

	w := app.do(http.MethodGet, "/list", nil)
	if w.Code != http.StatusOK || w.Body.String() != "No links" {
		t.Fatalf("empty list = %d %q", w.Code, w.Body.String())
	}

	app.seed(t, "bbb222", "https://b.example/2")
	app.seed(t, "aaa111", "https://a.example/1")

	w = app.do(http.MethodGet, "/list", nil)
	want := "aaa111 -> https://a.example/1\nbbb222 -> https://b.example/2"
	if w.Body.String() != want {
		t.Errorf("list body = %q, want %q", w.Body.String(), want)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, false)
	app.do(http.MethodGet, "/list", nil)

	w := app.do(http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "shortlink_http_requests_total") {
		t.Error("metrics output missing shortlink_http_requests_total")
	}
}

func TestFirstSegment(t *testing.T) {
	tests := map[string]string{
		"/abc123":         "abc123",
		"/abc123/":        "abc123",
		"/abc123/x/y.mp4": "abc123",
		"/":               "",
		"":                "",
	}
	for in, want := range tests {
		if got := firstSegment(in); got != want {
			t.Errorf("firstSegment(%q) = %q, want %q", in, got, want)
		}
	}
}
