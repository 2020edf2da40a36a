package datasource_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"impractical.co/rexo/datasource"
)

type request struct {
	path   string
	apiKey string
}

type requestLog struct {
	mu       sync.Mutex
	requests []request
}

func (l *requestLog) all() []request {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]request(nil), l.requests...)
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *requestLog) {
	t.Helper()
	log := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.mu.Lock()
		log.requests = append(log.requests, request{path: r.URL.EscapedPath(), apiKey: r.Header.Get(datasource.APIKeyHeader)})
		log.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, log
}

func TestFetchData(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status   int
		body     string
		expected string
	}{
		"record":        {status: http.StatusOK, body: `{"Slug": "home"}`, expected: `{"Slug": "home"}`},
		"collection":    {status: http.StatusOK, body: ` [1, 2] `, expected: `[1, 2]`},
		"empty":         {status: http.StatusOK, expected: `{}`},
		"404 blank":     {status: http.StatusNotFound, expected: `{}`},
		"404 html":      {status: http.StatusNotFound, body: "<h1>Not Found</h1>", expected: `{}`},
		"404 with json": {status: http.StatusNotFound, body: `{"error": "missing"}`, expected: `{"error": "missing"}`},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			server, _ := newServer(t, test.status, test.body)
			client, err := datasource.New(server.URL)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			got, err := client.FetchData(context.Background(), "page", "home")
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if string(got) != test.expected {
				t.Errorf("expected %s, got %s", test.expected, got)
			}
		})
	}
}

func TestFetchDataInvalidJSON(t *testing.T) {
	t.Parallel()

	server, _ := newServer(t, http.StatusOK, "<html></html>")
	client, err := datasource.New(server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := client.FetchData(context.Background(), "page", "home"); err == nil {
		t.Error("expected an error, got nil")
	}
}

func TestFetchDataStatusError(t *testing.T) {
	t.Parallel()

	server, _ := newServer(t, http.StatusServiceUnavailable, `{"error": "down"}`)
	client, err := datasource.New(server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	_, err = client.FetchData(context.Background(), "page", "home")
	var statusErr *datasource.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected a *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, statusErr.StatusCode)
	}
	if expected := server.URL + "/page/home"; statusErr.URL != expected {
		t.Errorf("expected URL %q, got %q", expected, statusErr.URL)
	}
}

func TestFetchDataRequests(t *testing.T) {
	t.Parallel()

	server, log := newServer(t, http.StatusOK, `{}`)

	withKey, err := datasource.New(server.URL+"/", datasource.WithAPIKey("s3cret"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	withoutKey, err := datasource.New(server.URL, datasource.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	ctx := context.Background()
	for _, fetch := range []struct {
		client       *datasource.Client
		resourceType string
		key          string
	}{
		{client: withKey, resourceType: "page", key: "home"},
		{client: withKey, resourceType: "blog"},
		{client: withoutKey, resourceType: "blog", key: "a b/c"},
	} {
		if _, err := fetch.client.FetchData(ctx, fetch.resourceType, fetch.key); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}

	expected := []request{
		{path: "/page/home", apiKey: "s3cret"},
		{path: "/blog", apiKey: "s3cret"},
		{path: "/blog/a%20b%2Fc"},
	}
	requests := log.all()
	if len(requests) != len(expected) {
		t.Fatalf("expected %d requests, got %d: %v", len(expected), len(requests), requests)
	}
	for pos, req := range requests {
		if req != expected[pos] {
			t.Errorf("request %d: expected %+v, got %+v", pos, expected[pos], req)
		}
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := datasource.New("  "); !errors.Is(err, datasource.ErrNoBaseURL) {
		t.Errorf("expected %v, got %v", datasource.ErrNoBaseURL, err)
	}
}

func TestFetchDataResponseTooLarge(t *testing.T) {
	t.Parallel()

	for name, test := range map[string]struct {
		status int
		body   string
	}{
		"200":         {status: http.StatusOK, body: `{"title": "far too long"}`},
		"404":         {status: http.StatusNotFound, body: `<html>far too long</html>`},
		"200 at size": {status: http.StatusOK, body: `{"a": 1234567}`},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			server, _ := newServer(t, test.status, test.body)
			client, err := datasource.New(server.URL, datasource.WithMaxBodySize(16))
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			got, err := client.FetchData(context.Background(), "page", "home")
			if len(test.body) <= 16 {
				if err != nil {
					t.Fatalf("unexpected error: %s", err)
				}
				if string(got) != test.body {
					t.Errorf("expected %s, got %s", test.body, got)
				}
				return
			}
			if !errors.Is(err, datasource.ErrResponseTooLarge) {
				t.Errorf("expected %v, got %v (body %s)", datasource.ErrResponseTooLarge, err, got)
			}
		})
	}
}
