package http_test

import (
	"bytes"
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	ziphttp "github.com/patchwell/ziptable/http"
)

func TestSourceFetch(t *testing.T) {
	t.Parallel()

	payload := []byte("archive payload bytes")
	var gotHeader, gotUA, gotEncoding string
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotHeader = r.Header.Get("X-API-KEY")
		gotUA = r.Header.Get("User-Agent")
		gotEncoding = r.Header.Get("Accept-Encoding")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)

	src := ziphttp.NewSource(server.URL,
		ziphttp.WithHeader("X-API-KEY", "test-key"),
		ziphttp.WithUserAgent("ziptable-test"),
	)

	data, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("Fetch() = %q, want %q", data, payload)
	}
	if gotHeader != "test-key" {
		t.Fatalf("X-API-KEY = %q, want %q", gotHeader, "test-key")
	}
	if gotUA != "ziptable-test" {
		t.Fatalf("User-Agent = %q, want %q", gotUA, "ziptable-test")
	}
	if gotEncoding != "identity" {
		t.Fatalf("Accept-Encoding = %q, want %q", gotEncoding, "identity")
	}
}

func TestSourceFetchStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: nethttp.StatusNotFound},
		{name: "server error", status: nethttp.StatusInternalServerError},
		{name: "unauthorized", status: nethttp.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
				w.WriteHeader(tt.status)
			}))
			t.Cleanup(server.Close)

			_, err := ziphttp.NewSource(server.URL).Fetch(context.Background())
			if !errors.Is(err, ziphttp.ErrFetch) {
				t.Fatalf("Fetch() error = %v, want ErrFetch", err)
			}
		})
	}
}

func TestSourceFetchMaxBytes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
	}))
	t.Cleanup(server.Close)

	_, err := ziphttp.NewSource(server.URL, ziphttp.WithMaxBytes(16)).Fetch(context.Background())
	if !errors.Is(err, ziphttp.ErrFetch) {
		t.Fatalf("Fetch() error = %v, want ErrFetch", err)
	}

	// At or under the limit succeeds.
	data, err := ziphttp.NewSource(server.URL, ziphttp.WithMaxBytes(64)).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(data) != 64 {
		t.Fatalf("Fetch() = %d bytes, want 64", len(data))
	}
}

func TestSourceFetchContextCanceled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = w.Write([]byte("unreachable"))
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ziphttp.NewSource(server.URL).Fetch(ctx)
	if !errors.Is(err, ziphttp.ErrFetch) {
		t.Fatalf("Fetch() error = %v, want ErrFetch", err)
	}
}

func TestPayloadID(t *testing.T) {
	t.Parallel()

	a := ziphttp.PayloadID([]byte("same"))
	b := ziphttp.PayloadID([]byte("same"))
	c := ziphttp.PayloadID([]byte("different"))
	if a != b {
		t.Fatalf("PayloadID not stable: %s != %s", a, b)
	}
	if a == c {
		t.Fatal("PayloadID identical for different payloads")
	}
}
