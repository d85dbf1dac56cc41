package supabase

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

	"github.com/zamyshop/reviews-backend/pkg/config"
	"github.com/zamyshop/reviews-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

// Client talks to the Supabase REST (PostgREST) and storage endpoints. It is
// deliberately thin: one create call, one upload call, no retries.
type Client struct {
	httpClient *http.Client
	restURL    string
	storageURL string
	anonKey    string
	publicBase string

	requestTimeout time.Duration
	uploadTimeout  time.Duration
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WriteError reports a failed record create. Transport failures carry
// StatusCode 0.
type WriteError struct {
	StatusCode int
	Message    string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("supabase write failed (status %d): %s", e.StatusCode, e.Message)
}

// UploadError reports a failed object upload. Transport failures carry
// StatusCode 0.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("supabase upload failed (status %d): %s", e.StatusCode, e.Message)
}

func NewClient(cfg config.SupabaseConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.RESTURL) == "" {
		return nil, errors.New("supabase rest url is required")
	}
	if strings.TrimSpace(cfg.StorageURL) == "" {
		return nil, errors.New("supabase storage url is required")
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, errors.New("supabase anon key is required")
	}
	if strings.TrimSpace(cfg.PublicBase) == "" {
		return nil, errors.New("supabase public base is required")
	}

	client := &Client{
		httpClient:     &http.Client{},
		restURL:        strings.TrimRight(cfg.RESTURL, "/"),
		storageURL:     strings.TrimRight(cfg.StorageURL, "/"),
		anonKey:        cfg.AnonKey,
		publicBase:     strings.TrimRight(cfg.PublicBase, "/"),
		requestTimeout: cfg.RequestTimeout,
		uploadTimeout:  cfg.UploadTimeout,
	}

	if logg != nil {
		logg.Info(context.Background(), "supabase client initialized")
	}

	return client, nil
}

// CreateRecord inserts a row into the named collection and returns the created
// representation (PostgREST return=representation yields an array of rows).
func (c *Client) CreateRecord(ctx context.Context, collection string, params url.Values, payload any) ([]map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &WriteError{StatusCode: 0, Message: fmt.Sprintf("encode payload: %v", err)}
	}

	endpoint := c.restURL + "/" + strings.TrimLeft(collection, "/")
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &WriteError{StatusCode: 0, Message: err.Error()}
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &WriteError{StatusCode: 0, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &WriteError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		return nil, &WriteError{StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}

	return decodeRows(raw)
}

// Ping checks that the REST endpoint answers with the anon key.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.httpClient == nil {
		return errors.New("supabase client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.restURL+"/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("supabase rest check failed: %s", resp.Status)
	}
	return nil
}

func decodeRows(raw []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var rows []map[string]any
	if err := json.Unmarshal(trimmed, &rows); err == nil {
		return rows, nil
	}

	// Some deployments return a bare object for single-row inserts.
	var row map[string]any
	if err := json.Unmarshal(trimmed, &row); err != nil {
		return nil, &WriteError{StatusCode: 0, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return []map[string]any{row}, nil
}

func errorMessage(raw []byte, status int) string {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err == nil {
		if msg, ok := payload["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("HTTP Error: %d", status)
}
