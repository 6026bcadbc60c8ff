package marketdata

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"
)

// mockHTTPClient implements HTTPDoer. Responses can be routed by the
// function query parameter so multi-call operations stay testable.
type mockHTTPClient struct {
	status    int
	body      string
	responses map[string]string // keyed by the function query param
	err       error
	requests  []string // function params in call order
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	fn := req.URL.Query().Get("function")
	m.requests = append(m.requests, fn)
	if m.err != nil {
		return nil, m.err
	}
	body := m.body
	if m.responses != nil {
		if routed, ok := m.responses[fn]; ok {
			body = routed
		}
	}
	status := m.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}

func (m *mockHTTPClient) calls(fn string) int {
	n := 0
	for _, got := range m.requests {
		if got == fn {
			n++
		}
	}
	return n
}

// fakeClock drives cache expiry without sleeping.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestClient(t *testing.T, doer *mockHTTPClient) (*alphaVantageClient, *Cache) {
	t.Helper()
	clock := newFakeClock()
	cache := NewCacheWithClock(clock.Now)
	client := newAlphaVantageClient(Config{
		APIKey:     "test-key",
		BaseURL:    "https://example.test/query",
		HTTPClient: doer,
		Cache:      cache,
	}, slog.Default())
	return client, cache
}

func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

func assertFloatEquals(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if diff := got - want; diff > 0.001 || diff < -0.001 {
		t.Errorf("%s: got %f, want %f", msg, got, want)
	}
}
