package cfddns_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pmuller/cfddns"
)

func TestWebLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "192.0.2.1")
	}))
	defer srv.Close()
	wr, err := cfddns.WebResolver(srv.URL)
	if err != nil {
		t.Fatalf("WebResolver failed: %s", err)
	}
	res, err := wr.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Request failed: %s", err)
	}
	if expected, got := netip.MustParseAddr("192.0.2.1"), res; expected != got {
		t.Fatalf("Expected %q; got %q", expected, got)
	}
}

func TestWebLookupTrimsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "192.0.2.1\n")
	}))
	defer srv.Close()
	wr, _ := cfddns.WebResolver(srv.URL)
	res, err := wr.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Request failed: %s", err)
	}
	if expected := netip.MustParseAddr("192.0.2.1"); res != expected {
		t.Fatalf("Expected %q; got %q", expected, res)
	}
}

func TestWebLookupFallsBack(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "192.0.2.1")
	}))
	defer good.Close()

	wr, _ := cfddns.WebResolver(bad.URL, good.URL)
	res, err := wr.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Expected the second service to answer; got %s", err)
	}
	if expected := netip.MustParseAddr("192.0.2.1"); res != expected {
		t.Fatalf("Expected %q; got %q", expected, res)
	}
}

func TestWebLookupRejectsNonIPv4(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "2001:db8::1")
	}))
	defer srv.Close()
	wr, _ := cfddns.WebResolver(srv.URL)
	if _, err := wr.Resolve(context.Background()); err == nil {
		t.Fatal("Expected an error for an IPv6 answer; got err == nil")
	}
}

func TestWebLookupAllServicesFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not an ip")
	}))
	defer srv.Close()
	wr, _ := cfddns.WebResolver(srv.URL, srv.URL)
	if _, err := wr.Resolve(context.Background()); err == nil {
		t.Fatal("Expected error response; got err == nil")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// UsingHTTPClient must reach the default web resolver, not only an
// explicitly configured one.
func TestUsingHTTPClientReachesDefaultResolver(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("192.0.2.1")),
			Request:    r,
		}, nil
	})}
	provider := &fakeProvider{records: map[string][]cfddns.Record{}}
	u, err := cfddns.New("example.com",
		cfddns.UsingProvider(provider),
		cfddns.WithStateFile(filepath.Join(t.TempDir(), "state")),
		cfddns.UsingHTTPClient(client),
	)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	report, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %s", err)
	}
	if expected, got := "192.0.2.1", report.IPv4; expected != got {
		t.Fatalf("expected the injected client to serve discovery; got IPv4 %q", got)
	}
}
