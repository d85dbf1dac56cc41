package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// UploadObject stores raw bytes under bucket/key with upsert semantics, so
// re-running a submission against the same key overwrites instead of failing.
// On success it returns the "bucket/key" storage key.
func (c *Client) UploadObject(ctx context.Context, bucket, key string, data []byte) (string, error) {
	endpoint := fmt.Sprintf(
		"%s/object/%s/%s",
		c.storageURL,
		url.PathEscape(bucket),
		url.PathEscape(key),
	)

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", &UploadError{StatusCode: 0, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UploadError{StatusCode: 0, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &UploadError{StatusCode: resp.StatusCode, Message: uploadErrorMessage(raw, resp.StatusCode)}
	}

	return bucket + "/" + key, nil
}

// PublicURL turns a storage key into a browsable link under the configured
// public base address.
func (c *Client) PublicURL(storageKey string) string {
	return c.publicBase + "/" + storageKey
}

func uploadErrorMessage(raw []byte, status int) string {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err == nil {
		if msg, ok := payload["message"].(string); ok && msg != "" {
			return fmt.Sprintf("HTTP Error: %d - %s", status, msg)
		}
	}
	return fmt.Sprintf("HTTP Error: %d", status)
}
