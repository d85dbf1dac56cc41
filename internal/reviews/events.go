package reviews

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// ReviewCreatedEvent is the payload published after a submission completes.
// Publishing is best-effort: a publish failure never alters the response.
type ReviewCreatedEvent struct {
	ReviewID       int64    `json:"review_id"`
	ProductID      int64    `json:"product_id"`
	UserID         int64    `json:"user_id"`
	Status         int      `json:"status"`
	ParentReviewID *int64   `json:"parent_review_id,omitempty"`
	ImageURLs      []string `json:"image_urls"`
	CreatedAt      string   `json:"created_at"`
}

type eventPublisher interface {
	PublishJSON(ctx context.Context, payload []byte, attrs map[string]string) error
}

func (s *service) publishReviewCreated(ctx context.Context, event ReviewCreatedEvent) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logg.Error(ctx, "reviews: encoding review-created event", err)
		return
	}
	attrs := map[string]string{
		"event_type": "review.created",
		"review_id":  strconv.FormatInt(event.ReviewID, 10),
	}
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.publisher.PublishJSON(publishCtx, payload, attrs); err != nil {
		s.logg.Error(ctx, "reviews: publishing review-created event", err)
	}
}
