package reviews

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/zamyshop/reviews-backend/internal/sentiment"
	"github.com/zamyshop/reviews-backend/pkg/config"
	pkgerrors "github.com/zamyshop/reviews-backend/pkg/errors"
	"github.com/zamyshop/reviews-backend/pkg/logger"
	"github.com/zamyshop/reviews-backend/pkg/metrics"
)

const successMessage = "Review submitted successfully"

type recordStore interface {
	CreateRecord(ctx context.Context, collection string, params url.Values, payload any) ([]map[string]any, error)
}

type objectStore interface {
	UploadObject(ctx context.Context, bucket, key string, data []byte) (string, error)
	PublicURL(storageKey string) string
}

// Submission is one incoming review, already decoded from either entry shape.
type Submission struct {
	ProductID      int64
	UserID         int64
	Comment        string
	Rating         *int64
	ParentReviewID *int64
	Images         []ImageSource
}

// SubmitResult is what a successful submission reports back.
type SubmitResult struct {
	ReviewID          int64
	Message           string
	UploadedImageURLs []string
}

// Service exposes the review submission pipeline.
type Service interface {
	Submit(ctx context.Context, sub Submission) (*SubmitResult, error)
}

type service struct {
	records    recordStore
	objects    objectStore
	classifier sentiment.Classifier
	publisher  eventPublisher
	cfg        config.SupabaseConfig
	logg       *logger.Logger
	metrics    *metrics.ReviewMetrics
	now        func() time.Time
}

// ServiceParams wires the submission pipeline's collaborators. Publisher and
// Metrics are optional; everything else is required.
type ServiceParams struct {
	Records    recordStore
	Objects    objectStore
	Classifier sentiment.Classifier
	Publisher  eventPublisher
	Config     config.SupabaseConfig
	Logger     *logger.Logger
	Metrics    *metrics.ReviewMetrics
	Now        func() time.Time
}

// NewService constructs the review submission service.
func NewService(p ServiceParams) (Service, error) {
	if p.Records == nil {
		return nil, fmt.Errorf("record store required")
	}
	if p.Objects == nil {
		return nil, fmt.Errorf("object store required")
	}
	if p.Classifier == nil {
		return nil, fmt.Errorf("classifier required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		records:    p.Records,
		objects:    p.Objects,
		classifier: p.Classifier,
		publisher:  p.Publisher,
		cfg:        p.Config,
		logg:       p.Logger,
		metrics:    p.Metrics,
		now:        now,
	}, nil
}

// Submit runs the full pipeline: validate, resolve sentiment, create the
// review record, process images, assemble the response. Once the review
// record exists the submission always succeeds; per-image failures only
// shrink the returned URL list.
func (s *service) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	started := s.now()

	if err := validate(sub); err != nil {
		s.metrics.IncSubmission("validation_error")
		return nil, err
	}

	status := s.resolveStatus(ctx, sub)

	reviewID, createdAt, err := s.createReview(ctx, sub, status)
	if err != nil {
		s.metrics.IncSubmission("dependency_error")
		return nil, err
	}
	ctx = s.logg.WithReviewID(ctx, reviewID)

	urls := s.processImages(ctx, reviewID, sub.Images)

	s.metrics.IncSubmission("success")
	s.metrics.ObserveDuration(s.now().Sub(started))

	s.publishReviewCreated(ctx, ReviewCreatedEvent{
		ReviewID:       reviewID,
		ProductID:      sub.ProductID,
		UserID:         sub.UserID,
		Status:         int(status),
		ParentReviewID: sub.ParentReviewID,
		ImageURLs:      urls,
		CreatedAt:      createdAt,
	})

	return &SubmitResult{
		ReviewID:          reviewID,
		Message:           successMessage,
		UploadedImageURLs: urls,
	}, nil
}

func validate(sub Submission) error {
	if sub.ProductID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if sub.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(sub.Comment) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "comment is required")
	}
	return nil
}

// resolveStatus forces replies to positive without consulting the classifier;
// only top-level reviews are sentiment-gated.
func (s *service) resolveStatus(ctx context.Context, sub Submission) sentiment.Polarity {
	if sub.ParentReviewID != nil {
		return sentiment.Positive
	}
	return s.classifier.Classify(ctx, sub.Comment)
}

func (s *service) createReview(ctx context.Context, sub Submission, status sentiment.Polarity) (int64, string, error) {
	now := s.now().Format(time.RFC3339)
	payload := map[string]any{
		"product_id": sub.ProductID,
		"user_id":    sub.UserID,
		"comment":    sub.Comment,
		"status":     int(status),
		"created_at": now,
		"updated_at": now,
	}
	if sub.Rating != nil {
		payload["rating"] = *sub.Rating
	}
	if sub.ParentReviewID != nil {
		payload["parent_review_id"] = *sub.ParentReviewID
	}

	rows, err := s.records.CreateRecord(ctx, s.cfg.ReviewsTable, url.Values{"select": {"id"}}, payload)
	if err != nil {
		return 0, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating review record")
	}

	reviewID := extractID(rows)
	if reviewID <= 0 {
		return 0, "", pkgerrors.New(pkgerrors.CodeInternal, "store returned no review id")
	}
	return reviewID, now, nil
}

// processImages handles each source independently: a failed fetch or upload
// skips that image, and a failed mapping record is logged without dropping the
// already-public URL from the result.
func (s *service) processImages(ctx context.Context, reviewID int64, sources []ImageSource) []string {
	urls := []string{}
	if len(sources) == 0 {
		return urls
	}

	now := s.now()
	var imageErrs error
	for idx, src := range sources {
		data, err := src.Bytes(ctx)
		if err != nil {
			s.metrics.IncImage("fetch_failed")
			imageErrs = multierr.Append(imageErrs, fmt.Errorf("image %d (%s): %w", idx, src.Name(), err))
			continue
		}

		key := objectKey(reviewID, now, idx, src.Name())
		storageKey, err := s.objects.UploadObject(ctx, s.cfg.ReviewImageBucket, key, data)
		if err != nil {
			s.metrics.IncImage("upload_failed")
			imageErrs = multierr.Append(imageErrs, fmt.Errorf("image %d (%s): %w", idx, src.Name(), err))
			continue
		}

		publicURL := s.objects.PublicURL(storageKey)
		urls = append(urls, publicURL)

		timestamp := s.now().Format(time.RFC3339)
		mapping := map[string]any{
			"review_id":  reviewID,
			"image_url":  publicURL,
			"created_at": timestamp,
			"updated_at": timestamp,
		}
		if _, err := s.records.CreateRecord(ctx, s.cfg.ReviewImagesTable, nil, mapping); err != nil {
			// The object is already stored and its URL already returned; the
			// mapping row is best-effort bookkeeping.
			s.metrics.IncImage("mapping_failed")
			imageErrs = multierr.Append(imageErrs, fmt.Errorf("image %d mapping: %w", idx, err))
			continue
		}
		s.metrics.IncImage("stored")
	}

	if imageErrs != nil {
		s.logg.Error(ctx, "reviews: image processing finished with failures", imageErrs)
	}
	return urls
}

// extractID pulls the assigned identifier out of the created representation.
// JSON numbers decode as float64; string ids are tolerated for stores that
// serialize bigints.
func extractID(rows []map[string]any) int64 {
	if len(rows) == 0 {
		return 0
	}
	switch v := rows[0]["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return id
	default:
		return 0
	}
}

