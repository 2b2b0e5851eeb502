package adapters

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"pkgsource/internal/ports"
	"pkgsource/internal/shared"
	"pkgsource/internal/types"
)

const defaultHTTPTimeout = 60 * time.Second
const defaultHTTPRetries = 3
const defaultHTTPRetryDelay = 200 * time.Millisecond
const maxHTTPRetryDelay = 2 * time.Second

type RemoteIndexConfig struct {
	User         string
	APIKey       string
	TimeoutSec   int
	Retries      int
	RetryDelayMs int
}

// RemoteIndexReader fetches index files over HTTP. Gzipped responses are
// accepted when the URL ends in ".gz" or the server sets Content-Encoding.
type RemoteIndexReader struct {
	user    string
	apiKey  string
	httpCfg httpRetryConfig
}

type httpRetryConfig struct {
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
}

func normalizeHTTPConfig(timeoutSec int, retries int, delayMs int) httpRetryConfig {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retryCount := retries
	if retryCount <= 0 {
		retryCount = defaultHTTPRetries
	}
	baseDelay := time.Duration(delayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = defaultHTTPRetryDelay
	}
	return httpRetryConfig{
		timeout:   timeout,
		retries:   retryCount,
		baseDelay: baseDelay,
	}
}

func NewRemoteIndexReader(cfg RemoteIndexConfig) RemoteIndexReader {
	return RemoteIndexReader{
		user:    cfg.User,
		apiKey:  cfg.APIKey,
		httpCfg: normalizeHTTPConfig(cfg.TimeoutSec, cfg.Retries, cfg.RetryDelayMs),
	}
}

// IsRemoteIndex reports whether location should be fetched over HTTP.
func IsRemoteIndex(location string) bool {
	lower := strings.ToLower(strings.TrimSpace(location))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func (r RemoteIndexReader) Read(ctx context.Context, url string) (types.IndexFile, error) {
	resp, err := doRequest(ctx, url, r.user, r.apiKey, r.httpCfg)
	if err != nil {
		return types.IndexFile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("index file not found: " + url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to fetch index").
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}
	var reader io.Reader = resp.Body
	if strings.HasSuffix(url, ".gz") || strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return types.IndexFile{}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read gzipped index").
				WithCause(err)
		}
		defer gz.Close()
		reader = gz
	}
	var index types.IndexFile
	if err := yaml.NewDecoder(reader).Decode(&index); err != nil && err != io.EOF {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid index format: " + url).
			WithCause(err)
	}
	log.Debug().Str("url", url).Msg("remote index fetched")
	return index, nil
}

func doRequest(ctx context.Context, url string, user string, apiKey string, cfg httpRetryConfig) (*http.Response, error) {
	client := &http.Client{Timeout: cfg.timeout}
	var lastErr error
	for attempt := 0; attempt < cfg.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request canceled").
				WithCause(ctx.Err())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid index url: " + url).
				WithCause(err)
		}
		if strings.TrimSpace(apiKey) != "" {
			authUser := strings.TrimSpace(user)
			if authUser == "" {
				authUser = "api"
			}
			req.SetBasicAuth(authUser, apiKey)
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("request canceled").
					WithCause(ctx.Err())
			}
			lastErr = err
			if attempt < cfg.retries-1 {
				time.Sleep(httpRetryDelay(attempt, cfg))
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request failed").
				WithCause(err)
		}
		if (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) && attempt < cfg.retries-1 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			log.Debug().
				Str("url", url).
				Int("status", resp.StatusCode).
				Int("attempt", attempt+1).
				Msg("retrying index request")
			time.Sleep(httpRetryDelay(attempt, cfg))
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("request failed")
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("request failed").
		WithCause(lastErr)
}

func httpRetryDelay(attempt int, cfg httpRetryConfig) time.Duration {
	delay := cfg.baseDelay * time.Duration(1<<attempt)
	if delay > maxHTTPRetryDelay {
		delay = maxHTTPRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

var _ ports.IndexReaderPort = RemoteIndexReader{}
