package reviews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestObjectKey(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{name: "plain url", source: "https://img.example.com/photo.png", want: "reviews/review_9_1700000000_0.png"},
		{name: "query stripped", source: "https://img.example.com/photo.JPG?sig=abc&x=1", want: "reviews/review_9_1700000000_0.jpg"},
		{name: "no extension defaults", source: "https://img.example.com/photo", want: "reviews/review_9_1700000000_0.jpg"},
		{name: "uppercase lowered", source: "scan.PNG", want: "reviews/review_9_1700000000_0.png"},
		{name: "bare filename", source: "upload.webp", want: "reviews/review_9_1700000000_0.webp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := objectKey(9, at, 0, tc.source); got != tc.want {
				t.Fatalf("objectKey=%s, want %s", got, tc.want)
			}
		})
	}

	if got := objectKey(9, at, 3, "a.png"); got != "reviews/review_9_1700000000_3.png" {
		t.Fatalf("index not threaded into key: %s", got)
	}
}

func TestRemoteImageFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	fetcher := NewImageFetcher(5 * time.Second)

	data, err := fetcher.Source(srv.URL + "/photo.png").Bytes(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("data=%q", data)
	}

	if _, err := fetcher.Source(srv.URL + "/missing.png").Bytes(context.Background()); err == nil {
		t.Fatal("expected error for non-success status")
	}
}

func TestRemoteImageTransportFailure(t *testing.T) {
	fetcher := NewImageFetcher(time.Second)
	if _, err := fetcher.Source("http://127.0.0.1:1/photo.png").Bytes(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestInlineSourcesPreserveOrder(t *testing.T) {
	files := []InlineImage{
		{FileName: "a.png", Data: []byte("a")},
		{FileName: "b.jpg", Data: []byte("b")},
	}
	sources := InlineSources(files)
	if len(sources) != 2 {
		t.Fatalf("sources=%d, want 2", len(sources))
	}
	for i, want := range []string{"a.png", "b.jpg"} {
		if sources[i].Name() != want {
			t.Fatalf("sources[%d]=%s, want %s", i, sources[i].Name(), want)
		}
		data, err := sources[i].Bytes(context.Background())
		if err != nil {
			t.Fatalf("bytes: %v", err)
		}
		if string(data) != string(files[i].Data) {
			t.Fatalf("data=%q", data)
		}
	}

	if InlineSources(nil) != nil {
		t.Fatal("nil files should yield nil sources")
	}
}
