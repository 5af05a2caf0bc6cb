package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrStatus marks a response whose status code is 400 or above.
var ErrStatus = errors.New("unexpected http status")

// ErrTooLarge marks a body longer than the read cap.
var ErrTooLarge = errors.New("response body too large")

// StatusError carries the code of a failed response. It matches ErrStatus
// with errors.Is.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("get %s: %v %d", e.URL, ErrStatus, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// IsNotFound reports whether err is a 404 from Get.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// maxBody caps how much of a page is read. Longer bodies are an error, not
// a truncated page.
var maxBody int64 = 8 << 20

// Client performs rate-limited GETs with the configured user agent and an
// optional Cookie header.
type Client struct {
	HC        *http.Client
	Limiter   *HostLimiter
	UserAgent string
}

func NewClient(limiter *HostLimiter, userAgent string) *Client {
	return &Client{
		HC:        &http.Client{Timeout: 20 * time.Second},
		Limiter:   limiter,
		UserAgent: userAgent,
	}
}

func (c *Client) Get(ctx context.Context, rawURL, cookie string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	if c.Limiter != nil {
		if err := c.Limiter.WaitURL(ctx, rawURL); err != nil {
			return nil, err
		}
	}
	hc := c.HC
	if hc == nil {
		hc = http.DefaultClient
	}
	res, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, &StatusError{URL: rawURL, Code: res.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if int64(len(b)) > maxBody {
		return nil, fmt.Errorf("read %s: %w (over %d bytes)", rawURL, ErrTooLarge, maxBody)
	}
	return b, nil
}
