package enrich

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Fetcher retrieves raw page content for a single URL. Exactly one of
// the return values is populated.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// CollyFetcher implements Fetcher using the Colly collector with a
// retry/backoff policy and failure classification.
type CollyFetcher struct {
	base   *colly.Collector
	retry  RetryPolicy
	logger *zap.Logger
}

// NewCollyFetcher constructs a configured Colly-based Fetcher.
func NewCollyFetcher(cfg Config, retry RetryPolicy, logger *zap.Logger) (*CollyFetcher, error) {
	if retry == nil {
		retry = NewLinearRetryPolicy(cfg.FetchAttempts, cfg.RetryDelay)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
	)
	base.AllowURLRevisit = true
	base.SetRequestTimeout(cfg.FetchTimeout)
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   32,
		MaxConnsPerHost:       cfg.Concurrency * 2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.FetchTimeout,
		ForceAttemptHTTP2:     true,
	})
	return &CollyFetcher{
		base:   base,
		retry:  retry,
		logger: logger,
	}, nil
}

// Fetch retrieves the page, retrying transient failures under the
// policy's attempt budget. Terminal failures return immediately.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		content, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !f.retry.ShouldRetry(err, attempt) {
			break
		}
		f.logger.Warn("fetch attempt failed, retrying",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.retry.Backoff(attempt)):
		}
	}
	return "", lastErr
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, rawURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	collector := f.base.Clone()
	var (
		mu       sync.Mutex
		done     bool
		content  string
		fetchErr error
	)
	settle := func(body string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return
		}
		done = true
		content, fetchErr = body, err
	}

	collector.OnResponse(func(r *colly.Response) {
		contentType := strings.ToLower(r.Headers.Get("Content-Type"))
		if !strings.Contains(contentType, "text/html") {
			settle("", &FetchError{
				Class:  ClassUnsupportedContentType,
				Reason: fmt.Sprintf("Not HTML content: %s", contentType),
			})
			return
		}
		settle(string(r.Body), nil)
	})
	collector.OnError(func(r *colly.Response, err error) {
		settle("", classifyFetchFailure(r, err))
	})

	if err := collector.Visit(rawURL); err != nil {
		settle("", classifyFetchFailure(nil, err))
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	mu.Lock()
	defer mu.Unlock()
	if !done {
		return "", &FetchError{Class: ClassTransientNetwork, Reason: reasonFetchFailed}
	}
	return content, fetchErr
}

// classifyFetchFailure maps a failed response or transport error onto
// the failure taxonomy. Status codes win over transport inspection
// because Colly reports HTTP-level rejections through OnError too.
func classifyFetchFailure(r *colly.Response, err error) *FetchError {
	if err == nil {
		err = errors.New("unknown fetch error")
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if r != nil && r.StatusCode >= 400 {
		switch r.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &FetchError{Class: ClassAuthOrAccessDenied, Reason: reasonAuthDenied, Err: err}
		case http.StatusNotFound:
			return &FetchError{Class: ClassNotFound, Reason: reasonNotFound, Err: err}
		default:
			return &FetchError{
				Class:  ClassTransientNetwork,
				Reason: fmt.Sprintf("HTTP %d error", r.StatusCode),
				Err:    err,
			}
		}
	}
	switch {
	case isTLSError(err):
		return &FetchError{Class: ClassTLSError, Reason: reasonTLS, Err: err}
	case isTimeout(err):
		return &FetchError{Class: ClassTransientNetwork, Reason: reasonTimeout, Err: err}
	default:
		return &FetchError{Class: ClassTransientNetwork, Reason: reasonConnection, Err: err}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTLSError(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostnameErr      x509.HostnameError
		invalidCert      x509.CertificateInvalidError
		recordHeader     tls.RecordHeaderError
		verifyErr        *tls.CertificateVerificationError
	)
	if errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidCert) ||
		errors.As(err, &recordHeader) ||
		errors.As(err, &verifyErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "x509:") || strings.Contains(msg, "tls:")
}
