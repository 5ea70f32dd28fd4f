package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxBodyBytes = 10 << 20 // 10MB
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	maxRedirects = 10
	// MaxFieldLength bounds the extracted title and h1
	MaxFieldLength = 255
)

// PageInfo holds the SEO fields extracted from one page fetch
type PageInfo struct {
	StatusCode  int    `json:"status_code"`
	Title       string `json:"title"`
	H1          string `json:"h1"`
	Description string `json:"description"`
}

// Options configures an Analyzer. Zero values select the defaults.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Meter        metric.Meter
}

// Analyzer fetches a page once and extracts its title, first heading and
// description
type Analyzer struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxBodyBytes int64
	logger       *zap.Logger
	metrics      *checkMetrics
}

func NewAnalyzer(opts Options, logger *zap.Logger) (*Analyzer, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	metrics, err := newCheckMetrics(opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer metrics: %w", err)
	}

	return &Analyzer{
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Limit redirects to prevent infinite loops
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		timeout:      opts.Timeout,
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       logger.Named("analyzer"),
		metrics:      metrics,
	}, nil
}

// Analyze performs a single GET of pageURL and extracts its SEO fields.
// Transport failures, timeouts and non-2xx responses are returned as
// *FetchError. Malformed markup never fails the call; missing elements
// yield empty fields.
func (a *Analyzer) Analyze(ctx context.Context, pageURL string) (*PageInfo, error) {
	started := time.Now()
	logger := a.logger.With(zap.String("url", pageURL))

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		a.metrics.record(ctx, outcomeNetwork, started)
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := a.client.Do(req)
	if err != nil {
		fetchErr := &FetchError{URL: pageURL, Err: err}
		a.metrics.record(ctx, failureOutcome(fetchErr), started)
		logger.Warn("page fetch failed", zap.Error(err))
		return nil, fetchErr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.metrics.record(ctx, outcomeStatus, started)
		logger.Warn("page returned non-success status", zap.Int("status_code", resp.StatusCode))
		return nil, &FetchError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	body, err := a.readBody(resp)
	if err != nil {
		fetchErr := &FetchError{URL: pageURL, Err: err}
		a.metrics.record(ctx, failureOutcome(fetchErr), started)
		logger.Warn("failed to read page body", zap.Error(err))
		return nil, fetchErr
	}

	info := a.extract(body)
	info.StatusCode = resp.StatusCode

	a.metrics.record(ctx, outcomeSuccess, started)
	logger.Debug("page analyzed",
		zap.Int("status_code", info.StatusCode),
		zap.Int("body_bytes", len(body)),
		zap.Duration("duration", time.Since(started)),
	)
	return info, nil
}

// readBody reads at most maxBodyBytes and converts the content to UTF-8
// using the declared or sniffed charset
func (a *Analyzer) readBody(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, a.maxBodyBytes)
	decoded, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		a.logger.Debug("unknown charset, reading raw body", zap.Error(err))
		decoded = limited
	}
	return io.ReadAll(decoded)
}

func (a *Analyzer) extract(body []byte) *PageInfo {
	info := &PageInfo{}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		a.logger.Debug("failed to parse html", zap.Error(err))
		info.Description = openGraphDescription(body)
		return info
	}

	info.Title = truncate(strings.TrimSpace(doc.Find("title").First().Text()), MaxFieldLength)
	info.H1 = truncate(strings.TrimSpace(doc.Find("h1").First().Text()), MaxFieldLength)

	info.Description = metaContent(doc, `meta[name="description"]`)
	if info.Description == "" {
		info.Description = openGraphDescription(body)
	}
	if info.Description == "" {
		info.Description = metaContent(doc, `meta[property="og:description"]`)
	}
	return info
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// openGraphDescription reads og:description from the document head
func openGraphDescription(body []byte) string {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(body)); err != nil {
		return ""
	}
	return strings.TrimSpace(og.Description)
}

// truncate cuts s to at most n characters
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func failureOutcome(err *FetchError) string {
	if err.Timeout() || errors.Is(err, context.DeadlineExceeded) {
		return outcomeTimeout
	}
	return outcomeNetwork
}
