package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vcptools/internal/domain/errs"
	"vcptools/internal/net"
)

func testMissAVClient(t *testing.T, srv *httptest.Server) *MissAVClient {
	t.Helper()
	session, err := net.NewSession(5 * time.Second)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	c := NewMissAVClient(session, srv.URL)
	c.retrier.BackoffBase = time.Millisecond
	return c
}

func TestVideoCodeFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://missav.ws/en/abc-123", "abc-123"},
		{"https://missav.ws/en/ABC-123", "abc-123"},
		{"https://missav.ws/en/abc-123-uncensored-leak", "abc-123"},
		{"https://missav.ws/", ""},
	}
	for _, tt := range tests {
		if got := VideoCodeFromURL(tt.in); got != tt.want {
			t.Errorf("VideoCodeFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVideoInfoScrapesPage(t *testing.T) {
	page := `<html><head>
		<meta property="og:title" content="ABC-123 Sample Title">
		<meta property="og:image" content="https://cdn.example/cover.jpg">
		<meta property="og:video:release_date" content="2024/01/20">
		</head><body>
		<script>player.src = "https://cdn.example/video/abc-123.mp4?token=xyz";</script>
		</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	c := testMissAVClient(t, srv)
	info, err := c.VideoInfo(context.Background(), srv.URL+"/en/abc-123")
	if err != nil {
		t.Fatalf("VideoInfo: %v", err)
	}

	if info.Title != "ABC-123 Sample Title" {
		t.Errorf("title: %q", info.Title)
	}
	if info.Code != "abc-123" {
		t.Errorf("code: %q", info.Code)
	}
	if info.PublishDate != "2024-01-20" {
		t.Errorf("publish date: %q", info.PublishDate)
	}
	if info.Thumbnail != "https://cdn.example/cover.jpg" {
		t.Errorf("thumbnail: %q", info.Thumbnail)
	}
	if info.SourceURL != "https://cdn.example/video/abc-123.mp4" {
		t.Errorf("source URL: %q", info.SourceURL)
	}
}

func TestVideoInfoRejectsErrorPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>404 Not Found</title></head></html>`))
	}))
	defer srv.Close()

	_, err := testMissAVClient(t, srv).VideoInfo(context.Background(), srv.URL+"/en/gone-1")
	if !errors.Is(err, errs.ErrMalformedInput) {
		t.Errorf("got %v, want ErrMalformedInput", err)
	}
}

func TestIsVideoURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	c := testMissAVClient(t, srv)

	tests := []struct {
		path string
		want bool
	}{
		{"/en/abc-123", true},
		{"/abc-123-uncensored-leak", true},
		{"/en/search/keyword", false},
		{"/genres", false},
		{"/en", false},
		{"/", false},
	}
	for _, tt := range tests {
		link := srv.URL + tt.path
		if got := c.isVideoURL(link); got != tt.want {
			t.Errorf("isVideoURL(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	if c.isVideoURL("https://other-host.example/en/abc-123") {
		t.Error("foreign host accepted")
	}
}

func TestSearchCollectsAndEnriches(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/en/search/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<a href="%s/en/abc-123">thumb</a>
			<a href="%s/en/abc-123">duplicate</a>
			<a href="%s/en/def-456">thumb</a>
			<a href="%s/genres">genres</a>
		</body></html>`, srv.URL, srv.URL, srv.URL, srv.URL)
	})
	mux.HandleFunc("/en/abc-123", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta property="og:title" content="ABC-123 First Video"></head></html>`))
	})
	mux.HandleFunc("/en/def-456", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>404 Not Found</title></head></html>`))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := testMissAVClient(t, srv)
	results, err := c.Search(context.Background(), "abc", 1, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (deduplicated, sections excluded)", len(results))
	}
	if results[0].Title != "ABC-123 First Video" {
		t.Errorf("enriched title: %q", results[0].Title)
	}
	// Enrichment failed for the second; falls back to the code.
	if results[1].Title != "DEF-456" {
		t.Errorf("fallback title: %q", results[1].Title)
	}
}

func TestSearchRetriesListingFailure(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server

	var listingCalls int
	mux.HandleFunc("/en/search/", func(w http.ResponseWriter, r *http.Request) {
		listingCalls++
		if listingCalls == 1 {
			http.Error(w, "upstream hiccup", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `<html><body><a href="%s/en/abc-123">thumb</a></body></html>`, srv.URL)
	})
	mux.HandleFunc("/en/abc-123", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta property="og:title" content="ABC-123 First Video"></head></html>`))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := testMissAVClient(t, srv)
	results, err := c.Search(context.Background(), "abc", 1, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if listingCalls != 2 {
		t.Errorf("listing fetched %d times, want 2", listingCalls)
	}
	if len(results) != 1 || results[0].Code != "abc-123" {
		t.Fatalf("results: %+v", results)
	}
	// Links from the failed attempt must not double up.
	if results[0].Title != "ABC-123 First Video" {
		t.Errorf("title: %q", results[0].Title)
	}
}

func TestSortParameter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"views", "views"},
		{"popular", "views"},
		{"monthly", "monthly_views"},
		{"new", ""},
		{"", ""},
		{"garbage", ""},
	}
	for _, tt := range tests {
		if got := sortParameter(tt.in); got != tt.want {
			t.Errorf("sortParameter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
