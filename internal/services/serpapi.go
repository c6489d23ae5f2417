package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/styleswipe/backend/internal/logger"
)

// ShoppingResult is one raw listing from the Google Shopping engine.
type ShoppingResult struct {
	Position       int      `json:"position"`
	Title          string   `json:"title"`
	ProductID      string   `json:"product_id"`
	ProductLink    string   `json:"product_link"`
	Link           string   `json:"link"`
	Thumbnail      string   `json:"thumbnail"`
	Price          string   `json:"price"`
	ExtractedPrice *float64 `json:"extracted_price"`
	OldPrice       string   `json:"old_price"`
	Source         string   `json:"source"`
	SourceIcon     string   `json:"source_icon"`
	Rating         *float64 `json:"rating"`
	Reviews        *int     `json:"reviews"`
	Snippet        string   `json:"snippet"`
	Delivery       string   `json:"delivery"`
	Tag            string   `json:"tag"`
}

type SearchClient interface {
	SearchShopping(ctx context.Context, query string, num int) ([]ShoppingResult, error)
}

type serpClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	domain     string
	country    string
	language   string
	httpClient *http.Client

	maxRetries int
}

func NewSerpClient(log *logger.Logger) (SearchClient, error) {
	apiKey := os.Getenv("SERPAPI_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing SERPAPI_KEY")
	}

	baseURL := os.Getenv("SERPAPI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://serpapi.com"
	}

	domain := os.Getenv("SERPAPI_GOOGLE_DOMAIN")
	if domain == "" {
		domain = "google.co.uk"
	}
	country := os.Getenv("SERPAPI_COUNTRY")
	if country == "" {
		country = "uk"
	}
	language := os.Getenv("SERPAPI_LANGUAGE")
	if language == "" {
		language = "en"
	}

	timeoutSec := 30
	if v := os.Getenv("SERPAPI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := os.Getenv("SERPAPI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &serpClient{
		log:        log.With("service", "SerpClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		domain:     domain,
		country:    country,
		language:   language,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type serpHTTPError struct {
	StatusCode int
	Body       string
}

func (e *serpHTTPError) Error() string {
	return fmt.Sprintf("serpapi http %d: %s", e.StatusCode, e.Body)
}

func serpRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	if code >= 500 && code <= 599 {
		return true
	}
	return false
}

func serpRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *serpHTTPError
	if errors.As(err, &httpErr) {
		return serpRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

func serpJitter(base time.Duration) time.Duration {
	// +/- 20%
	if base <= 0 {
		return 0
	}
	j := 0.2
	delta := base.Seconds() * j
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

type serpResponse struct {
	Error           string           `json:"error"`
	ShoppingResults []ShoppingResult `json:"shopping_results"`
}

func (c *serpClient) doOnce(ctx context.Context, params url.Values) ([]byte, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp, &serpHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, resp, nil
}

func (c *serpClient) SearchShopping(ctx context.Context, query string, num int) ([]ShoppingResult, error) {
	params := url.Values{}
	params.Set("engine", "google_shopping")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(num))
	params.Set("google_domain", c.domain)
	params.Set("gl", c.country)
	params.Set("hl", c.language)

	backoff := 1 * time.Second
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		raw, resp, err := c.doOnce(ctx, params)
		if err == nil {
			var out serpResponse
			if uErr := json.Unmarshal(raw, &out); uErr != nil {
				return nil, fmt.Errorf("serpapi decode error: %w", uErr)
			}
			if out.Error != "" {
				return nil, fmt.Errorf("serpapi error: %s", out.Error)
			}
			return out.ShoppingResults, nil
		}
		lastErr = err

		if !serpRetryableErr(err) {
			return nil, err
		}
		if attempt == c.maxRetries {
			break
		}

		sleepFor := backoff
		if resp != nil {
			ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
			if ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		c.log.Warn("serpapi request failed, retrying",
			"attempt", attempt+1,
			"sleep", sleepFor.String(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(serpJitter(sleepFor)):
		}

		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, lastErr
}
