package reviews

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/zamyshop/reviews-backend/internal/sentiment"
	"github.com/zamyshop/reviews-backend/pkg/config"
	pkgerrors "github.com/zamyshop/reviews-backend/pkg/errors"
	"github.com/zamyshop/reviews-backend/pkg/logger"
	"github.com/zamyshop/reviews-backend/pkg/supabase"
)

type recordCall struct {
	collection string
	params     url.Values
	payload    map[string]any
}

type stubRecords struct {
	calls    []recordCall
	reviewID any
	failWith map[string]error
}

func (s *stubRecords) CreateRecord(ctx context.Context, collection string, params url.Values, payload any) ([]map[string]any, error) {
	s.calls = append(s.calls, recordCall{collection: collection, params: params, payload: payload.(map[string]any)})
	if err := s.failWith[collection]; err != nil {
		return nil, err
	}
	if collection == "reviews" {
		if s.reviewID == nil {
			return []map[string]any{{}}, nil
		}
		return []map[string]any{{"id": s.reviewID}}, nil
	}
	return []map[string]any{{"id": float64(1)}}, nil
}

type stubObjects struct {
	uploads   []string
	uploadErr map[string]error
}

func (s *stubObjects) UploadObject(ctx context.Context, bucket, key string, data []byte) (string, error) {
	if err := s.uploadErr[key]; err != nil {
		return "", err
	}
	s.uploads = append(s.uploads, key)
	return bucket + "/" + key, nil
}

func (s *stubObjects) PublicURL(storageKey string) string {
	return "https://cdn.example.com/" + storageKey
}

type stubClassifier struct {
	polarity sentiment.Polarity
	calls    int
}

func (s *stubClassifier) Classify(ctx context.Context, text string) sentiment.Polarity {
	s.calls++
	return s.polarity
}

type stubPublisher struct {
	payloads [][]byte
	attrs    []map[string]string
	err      error
}

func (s *stubPublisher) PublishJSON(ctx context.Context, payload []byte, attrs map[string]string) error {
	s.payloads = append(s.payloads, payload)
	s.attrs = append(s.attrs, attrs)
	return s.err
}

type failingImage struct{ name string }

func (f *failingImage) Name() string { return f.name }

func (f *failingImage) Bytes(ctx context.Context) ([]byte, error) {
	return nil, fmt.Errorf("fetch %s: connection refused", f.name)
}

func newTestService(t *testing.T, records *stubRecords, objects *stubObjects, cls sentiment.Classifier, pub eventPublisher) Service {
	t.Helper()
	if records.reviewID == nil {
		records.reviewID = float64(42)
	}
	svc, err := NewService(ServiceParams{
		Records:    records,
		Objects:    objects,
		Classifier: cls,
		Publisher:  pub,
		Config: config.SupabaseConfig{
			ReviewsTable:      "reviews",
			ReviewImagesTable: "review_images",
			ReviewImageBucket: "review-images",
		},
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:    func() time.Time { return time.Unix(1700000000, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func int64Ptr(v int64) *int64 { return &v }

func TestSubmitValidationFailurePerformsNoWrites(t *testing.T) {
	cases := []struct {
		name string
		sub  Submission
	}{
		{name: "missing product", sub: Submission{UserID: 5, Comment: "great"}},
		{name: "missing user", sub: Submission{ProductID: 10, Comment: "great"}},
		{name: "empty comment", sub: Submission{ProductID: 10, UserID: 5, Comment: "   "}},
		{name: "zero ids", sub: Submission{ProductID: 0, UserID: 0, Comment: "great"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records := &stubRecords{}
			objects := &stubObjects{}
			cls := &stubClassifier{polarity: sentiment.Positive}
			svc := newTestService(t, records, objects, cls, nil)

			_, err := svc.Submit(context.Background(), tc.sub)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(records.calls) != 0 {
				t.Fatalf("expected no store writes, got %d", len(records.calls))
			}
			if len(objects.uploads) != 0 {
				t.Fatalf("expected no uploads, got %d", len(objects.uploads))
			}
		})
	}
}

func TestSubmitReplySkipsClassifier(t *testing.T) {
	records := &stubRecords{}
	cls := &stubClassifier{polarity: sentiment.Negative}
	svc := newTestService(t, records, &stubObjects{}, cls, nil)

	res, err := svc.Submit(context.Background(), Submission{
		ProductID:      10,
		UserID:         5,
		Comment:        "awful, broken on arrival",
		ParentReviewID: int64Ptr(3),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if cls.calls != 0 {
		t.Fatalf("classifier invoked %d times for a reply", cls.calls)
	}
	if got := records.calls[0].payload["status"]; got != 1 {
		t.Fatalf("reply status=%v, want 1", got)
	}
	if res.ReviewID != 42 {
		t.Fatalf("review id=%d, want 42", res.ReviewID)
	}
	if got := records.calls[0].payload["parent_review_id"]; got != int64(3) {
		t.Fatalf("parent_review_id=%v, want 3", got)
	}
}

func TestSubmitTopLevelUsesClassifier(t *testing.T) {
	records := &stubRecords{}
	cls := &stubClassifier{polarity: sentiment.Negative}
	svc := newTestService(t, records, &stubObjects{}, cls, nil)

	if _, err := svc.Submit(context.Background(), Submission{ProductID: 10, UserID: 5, Comment: "bad quality"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if cls.calls != 1 {
		t.Fatalf("classifier calls=%d, want 1", cls.calls)
	}
	if got := records.calls[0].payload["status"]; got != 0 {
		t.Fatalf("status=%v, want 0", got)
	}
	if _, ok := records.calls[0].payload["parent_review_id"]; ok {
		t.Fatal("parent_review_id present on a top-level review")
	}
	if _, ok := records.calls[0].payload["rating"]; ok {
		t.Fatal("rating present when not supplied")
	}
}

func TestSubmitIncludesOptionalRating(t *testing.T) {
	records := &stubRecords{}
	svc := newTestService(t, records, &stubObjects{}, &stubClassifier{polarity: sentiment.Positive}, nil)

	if _, err := svc.Submit(context.Background(), Submission{ProductID: 10, UserID: 5, Comment: "solid", Rating: int64Ptr(4)}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := records.calls[0].payload["rating"]; got != int64(4) {
		t.Fatalf("rating=%v, want 4", got)
	}
	created := records.calls[0].payload["created_at"]
	if created != records.calls[0].payload["updated_at"] {
		t.Fatalf("created_at %v != updated_at %v", created, records.calls[0].payload["updated_at"])
	}
	if _, err := time.Parse(time.RFC3339, created.(string)); err != nil {
		t.Fatalf("created_at not RFC3339: %v", err)
	}
}

func TestSubmitStoreFailureIsTerminal(t *testing.T) {
	records := &stubRecords{failWith: map[string]error{
		"reviews": &supabase.WriteError{StatusCode: 503, Message: "service unavailable"},
	}}
	svc := newTestService(t, records, &stubObjects{}, &stubClassifier{polarity: sentiment.Positive}, nil)

	_, err := svc.Submit(context.Background(), Submission{ProductID: 10, UserID: 5, Comment: "great"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestSubmitMissingIDIsTerminal(t *testing.T) {
	records := &stubRecords{reviewID: float64(0)}
	svc := newTestService(t, records, &stubObjects{}, &stubClassifier{polarity: sentiment.Positive}, nil)

	_, err := svc.Submit(context.Background(), Submission{ProductID: 10, UserID: 5, Comment: "great"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestSubmitPartialImageFailureKeepsReview(t *testing.T) {
	records := &stubRecords{}
	objects := &stubObjects{}
	svc := newTestService(t, records, objects, &stubClassifier{polarity: sentiment.Positive}, nil)

	res, err := svc.Submit(context.Background(), Submission{
		ProductID: 10,
		UserID:    5,
		Comment:   "great",
		Images: []ImageSource{
			&InlineImage{FileName: "a.png", Data: []byte("a")},
			&failingImage{name: "https://img.example.com/broken.jpg"},
			&InlineImage{FileName: "c.webp", Data: []byte("c")},
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := []string{
		"https://cdn.example.com/review-images/reviews/review_42_1700000000_0.png",
		"https://cdn.example.com/review-images/reviews/review_42_1700000000_2.webp",
	}
	if len(res.UploadedImageURLs) != len(want) {
		t.Fatalf("urls=%v, want %v", res.UploadedImageURLs, want)
	}
	for i := range want {
		if res.UploadedImageURLs[i] != want[i] {
			t.Fatalf("urls[%d]=%s, want %s", i, res.UploadedImageURLs[i], want[i])
		}
	}
	// one review record plus one mapping per stored image
	if len(records.calls) != 3 {
		t.Fatalf("record calls=%d, want 3", len(records.calls))
	}
}

func TestSubmitMappingFailureKeepsURL(t *testing.T) {
	records := &stubRecords{failWith: map[string]error{
		"review_images": &supabase.WriteError{StatusCode: 500, Message: "boom"},
	}}
	svc := newTestService(t, records, &stubObjects{}, &stubClassifier{polarity: sentiment.Positive}, nil)

	res, err := svc.Submit(context.Background(), Submission{
		ProductID: 10,
		UserID:    5,
		Comment:   "great",
		Images:    []ImageSource{&InlineImage{FileName: "a.jpg", Data: []byte("a")}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(res.UploadedImageURLs) != 1 {
		t.Fatalf("urls=%v, want the stored object's URL despite mapping failure", res.UploadedImageURLs)
	}
}

func TestSubmitNoImagesReturnsEmptyList(t *testing.T) {
	svc := newTestService(t, &stubRecords{}, &stubObjects{}, &stubClassifier{polarity: sentiment.Positive}, nil)

	res, err := svc.Submit(context.Background(), Submission{ProductID: 10, UserID: 5, Comment: "great"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.UploadedImageURLs == nil || len(res.UploadedImageURLs) != 0 {
		t.Fatalf("urls=%v, want empty non-nil slice", res.UploadedImageURLs)
	}
	if res.Message == "" {
		t.Fatal("expected a success message")
	}
}

func TestSubmitPublishesReviewCreatedEvent(t *testing.T) {
	pub := &stubPublisher{}
	svc := newTestService(t, &stubRecords{}, &stubObjects{}, &stubClassifier{polarity: sentiment.Positive}, pub)

	if _, err := svc.Submit(context.Background(), Submission{ProductID: 10, UserID: 5, Comment: "great"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(pub.payloads) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.payloads))
	}
	if pub.attrs[0]["event_type"] != "review.created" {
		t.Fatalf("event_type=%s", pub.attrs[0]["event_type"])
	}
	if pub.attrs[0]["review_id"] != "42" {
		t.Fatalf("review_id attr=%s, want 42", pub.attrs[0]["review_id"])
	}
}

func TestSubmitPublishFailureDoesNotFailSubmission(t *testing.T) {
	pub := &stubPublisher{err: fmt.Errorf("broker down")}
	svc := newTestService(t, &stubRecords{}, &stubObjects{}, &stubClassifier{polarity: sentiment.Positive}, pub)

	if _, err := svc.Submit(context.Background(), Submission{ProductID: 10, UserID: 5, Comment: "great"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestExtractID(t *testing.T) {
	cases := []struct {
		name string
		rows []map[string]any
		want int64
	}{
		{name: "float id", rows: []map[string]any{{"id": float64(7)}}, want: 7},
		{name: "string id", rows: []map[string]any{{"id": "12"}}, want: 12},
		{name: "missing id", rows: []map[string]any{{}}, want: 0},
		{name: "empty rows", rows: nil, want: 0},
		{name: "bad string", rows: []map[string]any{{"id": "seven"}}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractID(tc.rows); got != tc.want {
				t.Fatalf("extractID=%d, want %d", got, tc.want)
			}
		})
	}
}
