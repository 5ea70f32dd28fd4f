package analyzer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

func newTestAnalyzer(t *testing.T, opts Options) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(opts, zap.NewNop())
	require.NoError(t, err)
	return a
}

func htmlServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyze_ExtractsFields(t *testing.T) {
	srv := htmlServer(t, http.StatusOK, `<html><head>
		<title>T</title>
		<meta name="description" content="D">
		<meta property="og:description" content="OG">
	</head><body><h1>H</h1><h1>Second</h1></body></html>`)

	info, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, &PageInfo{StatusCode: 200, Title: "T", H1: "H", Description: "D"}, info)
}

func TestAnalyze_OpenGraphFallback(t *testing.T) {
	srv := htmlServer(t, http.StatusOK, `<html><head>
		<title>T</title>
		<meta property="og:description" content="  OG  ">
	</head><body></body></html>`)

	info, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "OG", info.Description)
	require.Empty(t, info.H1)
}

func TestAnalyze_EmptyDescriptionFallsBack(t *testing.T) {
	srv := htmlServer(t, http.StatusOK, `<html><head>
		<meta name="description" content="   ">
	</head><body><meta property="og:description" content="from body"></body></html>`)

	info, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "from body", info.Description)
}

func TestAnalyze_MissingElements(t *testing.T) {
	srv := htmlServer(t, http.StatusOK, `<p>nothing to see`)

	info, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, &PageInfo{StatusCode: 200}, info)
}

func TestAnalyze_MalformedMarkup(t *testing.T) {
	srv := htmlServer(t, http.StatusOK, `<html><head><title>Broken <b>page</title>
		<body><div><h1>  Still <span>here</h1></div></div></p><<>>`)

	info, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Broken <b>page", info.Title)
	require.Equal(t, "Still here", info.H1)
}

func TestAnalyze_TruncatesTitleAndH1(t *testing.T) {
	long := strings.Repeat("я", 300)
	desc := strings.Repeat("d", 400)
	srv := htmlServer(t, http.StatusOK, `<title>`+long+`</title><meta name="description" content="`+desc+`"><h1>`+long+`</h1>`)

	info, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("я", 255), info.Title)
	require.Equal(t, strings.Repeat("я", 255), info.H1)
	require.Equal(t, desc, info.Description, "description is not truncated")
}

func TestAnalyze_DecodesCharset(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String("<title>Привет</title>")
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		_, _ = w.Write([]byte(encoded))
	}))
	defer srv.Close()

	info, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Привет", info.Title)
}

func TestAnalyze_SendsBrowserHeaders(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<title>ok</title>"))
	}))
	defer srv.Close()

	_, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, DefaultUserAgent, gotUA)

	_, err = newTestAnalyzer(t, Options{UserAgent: "custom/1.0"}).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "custom/1.0", gotUA)
}

func TestAnalyze_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<title>Final</title>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	info, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, 200, info.StatusCode)
	require.Equal(t, "Final", info.Title)
}

func TestAnalyze_RedirectLoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	_, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Contains(t, err.Error(), "too many redirects")
}

func TestAnalyze_ServerError(t *testing.T) {
	srv := htmlServer(t, http.StatusInternalServerError, "<title>oops</title>")

	info, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	require.Nil(t, info)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
	require.False(t, fetchErr.Timeout())
}

func TestAnalyze_NotFound(t *testing.T) {
	srv := htmlServer(t, http.StatusNotFound, "")

	_, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestAnalyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	started := time.Now()
	_, err := newTestAnalyzer(t, Options{Timeout: 100 * time.Millisecond}).Analyze(context.Background(), srv.URL)
	require.Less(t, time.Since(started), time.Second)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.True(t, fetchErr.Timeout())
	require.Zero(t, fetchErr.StatusCode)
}

func TestAnalyze_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), addr)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Zero(t, fetchErr.StatusCode)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "ab", truncate("abc", 2))
	require.Equal(t, "жж", truncate("жжж", 2))
}
