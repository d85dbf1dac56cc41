package reviews

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
)

// ImageSource yields the bytes for one submitted image. The two entry shapes
// (remote URLs in a JSON body, files in a multipart body) reduce to this
// abstraction so the orchestrator runs one pipeline for both.
type ImageSource interface {
	// Name identifies the source (URL or filename) for key derivation and logs.
	Name() string
	Bytes(ctx context.Context) ([]byte, error)
}

// ImageFetcher builds remote image sources sharing one bounded HTTP client.
type ImageFetcher struct {
	client *http.Client
}

func NewImageFetcher(timeout time.Duration) *ImageFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ImageFetcher{client: &http.Client{Timeout: timeout}}
}

// Source wraps a remote URL as an image source.
func (f *ImageFetcher) Source(url string) ImageSource {
	return &remoteImage{url: url, client: f.client}
}

// Sources wraps a list of remote URLs preserving order.
func (f *ImageFetcher) Sources(urls []string) []ImageSource {
	if len(urls) == 0 {
		return nil
	}
	sources := make([]ImageSource, 0, len(urls))
	for _, u := range urls {
		sources = append(sources, f.Source(u))
	}
	return sources
}

type remoteImage struct {
	url    string
	client *http.Client
}

func (r *remoteImage) Name() string { return r.url }

func (r *remoteImage) Bytes(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r.url, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", r.url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r.url, err)
	}
	return data, nil
}

// InlineImage carries bytes supplied directly with the submission.
type InlineImage struct {
	FileName string
	Data     []byte
}

func (i *InlineImage) Name() string { return i.FileName }

func (i *InlineImage) Bytes(ctx context.Context) ([]byte, error) {
	return i.Data, nil
}

// InlineSources wraps uploaded files preserving order.
func InlineSources(files []InlineImage) []ImageSource {
	if len(files) == 0 {
		return nil
	}
	sources := make([]ImageSource, 0, len(files))
	for idx := range files {
		sources = append(sources, &files[idx])
	}
	return sources
}

// objectKey derives the storage key for one uploaded image. The review id,
// submission epoch and list position keep keys unique across concurrent
// submissions while staying easy to trace back.
func objectKey(reviewID int64, now time.Time, index int, sourceName string) string {
	return fmt.Sprintf("reviews/review_%d_%d_%d.%s", reviewID, now.Unix(), index, imageExtension(sourceName))
}

// imageExtension extracts the lowercase extension of a URL or filename with
// any query string stripped, defaulting to jpg.
func imageExtension(sourceName string) string {
	name := sourceName
	if idx := strings.IndexByte(name, '?'); idx >= 0 {
		name = name[:idx]
	}
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		return "jpg"
	}
	return strings.ToLower(ext)
}
