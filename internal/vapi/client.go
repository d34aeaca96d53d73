package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"receptionist-platform/internal/config"
)

// Client issues authenticated requests against the vendor voice API.
//
// Credential tiers: the private key works for every operation and is always
// preferred. The public key is accepted as a read-only fallback. Key
// selection is decided once from injected config, never sniffed from the
// environment at call time.
type Client struct {
	baseURL    string
	apiVersion string
	privateKey string
	publicKey  string

	http *http.Client

	// maxRetries bounds transient-failure retries per request.
	maxRetries uint64
}

type operation int

const (
	opRead operation = iota
	opWrite
)

// ErrNoCredentials is returned by NewClient when neither key tier is set.
var ErrNoCredentials = errors.New(
	"vapi: no API key configured; set VAPI_PRIVATE_KEY (works for read and write) " +
		"or VAPI_PUBLIC_KEY (read-only fallback)")

// ErrWriteRequiresPrivateKey is returned when a write is attempted with only
// the public key configured.
var ErrWriteRequiresPrivateKey = errors.New(
	"vapi: write operations require VAPI_PRIVATE_KEY; the public key is read-only")

// APIError is a non-2xx vendor response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vapi: %s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is a vendor 404.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}

// IsAuthError reports whether err is a vendor 401/403.
func IsAuthError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && (ae.StatusCode == http.StatusUnauthorized || ae.StatusCode == http.StatusForbidden)
}

func NewClient(cfg config.VapiConfig) (*Client, error) {
	if cfg.PrivateKey == "" && cfg.PublicKey == "" {
		return nil, ErrNoCredentials
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.vapi.ai"
	}
	return &Client{
		baseURL:    base,
		apiVersion: cfg.APIVersion,
		privateKey: cfg.PrivateKey,
		publicKey:  cfg.PublicKey,
		http:       &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
	}, nil
}

func (c *Client) keyFor(op operation) (string, error) {
	// Private key preferred for all operations; public key for reads only.
	if c.privateKey != "" {
		return c.privateKey, nil
	}
	if op == opWrite {
		return "", ErrWriteRequiresPrivateKey
	}
	return c.publicKey, nil
}

type vendorErrorBody struct {
	Message any    `json:"message"`
	Error   any    `json:"error"`
	Detail  string `json:"detail"`
}

func (b vendorErrorBody) text(fallback string) string {
	for _, v := range []any{b.Message, b.Error, b.Detail} {
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case map[string]any:
			if s, ok := t["message"].(string); ok && s != "" {
				return s
			}
		case []any:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				if s, ok := p.(string); ok {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	return fallback
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, op operation) error {
	key, err := c.keyFor(op)
	if err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("vapi: encode request: %w", err)
		}
	}

	u := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	attempt := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+key)
		if c.apiVersion != "" {
			req.Header.Set("VAPI-Version", c.apiVersion)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// Network-level failures are retryable.
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil || len(raw) == 0 {
				return nil
			}
			if err := json.Unmarshal(raw, out); err != nil {
				return backoff.Permanent(fmt.Errorf("vapi: decode response: %w", err))
			}
			return nil
		}

		var eb vendorErrorBody
		_ = json.Unmarshal(raw, &eb)
		apiErr := c.mapStatus(resp.StatusCode, eb, op)

		// 429 and 5xx are worth retrying; everything else is final.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return apiErr
		}
		return backoff.Permanent(apiErr)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	return backoff.Retry(attempt, bo)
}

func (c *Client) mapStatus(status int, body vendorErrorBody, op operation) *APIError {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		tier := "public"
		if c.privateKey != "" {
			tier = "private"
		}
		kind := "read"
		if op == opWrite {
			kind = "write"
		}
		return &APIError{
			StatusCode: status,
			Message: fmt.Sprintf(
				"invalid API key for %s operation (using %s key tier): %s; "+
					"check VAPI_PRIVATE_KEY / VAPI_PUBLIC_KEY for typos, stray quotes or whitespace, "+
					"and confirm the key in the vendor dashboard",
				kind, tier, body.text("authentication failed")),
		}
	case http.StatusNotFound:
		return &APIError{
			StatusCode: status,
			Message:    body.text("resource not found; the ID may be wrong or the resource may have been deleted"),
		}
	default:
		return &APIError{
			StatusCode: status,
			Message:    body.text(fmt.Sprintf("request failed with status %d", status)),
		}
	}
}
