package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"shortlink-proxy/internal/apperrors"
	"shortlink-proxy/internal/config"
	"shortlink-proxy/internal/model"
	"shortlink-proxy/internal/repository"
)

// countingGenerator 按顺序返回预设短码，用尽后重复最后一个
type countingGenerator struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func (g *countingGenerator) Generate(int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	if i >= len(g.codes) {
		i = len(g.codes) - 1
	}
	g.calls++
	return g.codes[i]
}

// occupiedStore Exists 永远返回 true
type occupiedStore struct {
	repository.Store
	sets []string
}

func (s *occupiedStore) Exists(context.Context, string) (bool, error) { return true, nil }

func (s *occupiedStore) Set(_ context.Context, link *model.ShortLink) error {
	s.sets = append(s.sets, link.Code)
	return nil
}

type failingStore struct {
	repository.Store
}

func (failingStore) Exists(context.Context, string) (bool, error) {
	return false, errors.New("connection reset")
}

func newTestShortLinkService(store repository.Store, gen Generator) *ShortLinkService {
	cfg := config.ShortLinkConfig{CodeLength: 6, MaxAttempts: 20}
	return NewShortLinkService(store, gen, cfg, "", zap.NewNop())
}

func TestRegisterThenResolve(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestShortLinkService(store, RandomGenerator{})
	ctx := context.Background()

	target := "https://cdn.example.com/movie.mp4?token=abc"
	shortURL, err := svc.Register(ctx, target, "proxy.example.com")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	prefix := "https://proxy.example.com/p/"
	if !strings.HasPrefix(shortURL, prefix) {
		t.Fatalf("short url = %q, want prefix %q", shortURL, prefix)
	}
	code := strings.TrimPrefix(shortURL, prefix)
	if len(code) != 6 {
		t.Fatalf("code %q has length %d, want 6", code, len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(CodeAlphabet, r) {
			t.Fatalf("code %q contains %q outside alphabet", code, r)
		}
	}

	link, err := store.Get(ctx, code)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", code, err)
	}
	if link.TargetURL != target {
		t.Errorf("stored url = %q, want %q", link.TargetURL, target)
	}
	if link.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestRegisterRejectsInvalidURL(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		message string
	}{
		{"empty", "", "Missing ?url="},
		{"no scheme", "notaurl", "URL must start with http:// or https://"},
		{"ftp", "ftp://files.example.com/a.bin", "URL must start with http:// or https://"},
		{"uppercase scheme", "HTTPS://example.com", "URL must start with http:// or https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			svc := newTestShortLinkService(store, RandomGenerator{})

			_, err := svc.Register(context.Background(), tt.rawURL, "proxy.example.com")
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("Register(%q) error = %v, want validation error", tt.rawURL, err)
			}
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.Message != tt.message {
				t.Errorf("message = %q, want %q", appErr.Message, tt.message)
			}
			if store.Len() != 0 {
				t.Errorf("store has %d records, want none written", store.Len())
			}
		})
	}
}

func TestRegisterRetriesOnCollision(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, &model.ShortLink{Code: "taken1", TargetURL: "https://old.example"})

	gen := &countingGenerator{codes: []string{"taken1", "taken1", "fresh1"}}
	svc := newTestShortLinkService(store, gen)

	shortURL, err := svc.Register(ctx, "https://new.example", "h")
	if err != nil {
		t.Fatal(err)
	}
	if shortURL != "https://h/p/fresh1" {
		t.Errorf("short url = %q", shortURL)
	}
	if gen.calls != 3 {
		t.Errorf("generator calls = %d, want 3", gen.calls)
	}

	old, _ := store.Get(ctx, "taken1")
	if old.TargetURL != "https://old.example" {
		t.Error("existing mapping was overwritten")
	}
}

func TestRegisterExhaustionTerminates(t *testing.T) {
	store := &occupiedStore{}
	gen := &countingGenerator{codes: []string{"aaaaaa", "bbbbbb", "cccccc"}}
	svc := NewShortLinkService(store, gen, config.ShortLinkConfig{CodeLength: 6, MaxAttempts: 5}, "", zap.NewNop())

	shortURL, err := svc.Register(context.Background(), "https://example.com", "h")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if gen.calls != 5 {
		t.Errorf("generator calls = %d, want exactly 5", gen.calls)
	}
	if shortURL != "https://h/p/cccccc" {
		t.Errorf("short url = %q, want last generated code", shortURL)
	}
	if len(store.sets) != 1 || store.sets[0] != "cccccc" {
		t.Errorf("sets = %v, want [cccccc]", store.sets)
	}
}

func TestRegisterStoreFailure(t *testing.T) {
	svc := newTestShortLinkService(failingStore{}, RandomGenerator{})
	_, err := svc.Register(context.Background(), "https://example.com", "h")
	if !errors.Is(err, apperrors.ErrSystem) {
		t.Fatalf("Register() error = %v, want system error", err)
	}
}

func TestRegisterConcurrentDistinctCodes(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestShortLinkService(store, RandomGenerator{})
	ctx := context.Background()

	const n = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shortURL, err := svc.Register(ctx, "https://example.com/file.bin", "h")
			if err != nil {
				t.Errorf("Register() error = %v", err)
				return
			}
			mu.Lock()
			seen[shortURL] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("got %d distinct short urls, want %d", len(seen), n)
	}
	if store.Len() != n {
		t.Errorf("store has %d records, want %d", store.Len(), n)
	}
}

func TestShortURLBase(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		host    string
		want    string
	}{
		{"from host", "", "proxy.example.com", "https://proxy.example.com/p/abc123"},
		{"host with port", "", "localhost:8080", "https://localhost:8080/p/abc123"},
		{"configured base", "http://127.0.0.1:8080/", "ignored", "http://127.0.0.1:8080/p/abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewShortLinkService(repository.NewMemoryStore(), RandomGenerator{}, config.ShortLinkConfig{}, tt.baseURL, zap.NewNop())
			if got := svc.ShortURL(tt.host, "abc123"); got != tt.want {
				t.Errorf("ShortURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListOrdered(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	for _, code := range []string{"zzz999", "aaa111"} {
		_ = store.Set(ctx, &model.ShortLink{Code: code, TargetURL: "https://example.com/" + code})
	}
	svc := newTestShortLinkService(store, RandomGenerator{})

	links, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 || links[0].Code != "aaa111" || links[1].Code != "zzz999" {
		t.Errorf("List() = %+v", links)
	}
}
