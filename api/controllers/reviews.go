package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/zamyshop/reviews-backend/api/responses"
	"github.com/zamyshop/reviews-backend/api/validators"
	"github.com/zamyshop/reviews-backend/internal/reviews"
	"github.com/zamyshop/reviews-backend/pkg/config"
	pkgerrors "github.com/zamyshop/reviews-backend/pkg/errors"
	"github.com/zamyshop/reviews-backend/pkg/logger"
	"github.com/zamyshop/reviews-backend/pkg/types"
)

// stringList tolerates both a JSON array of URLs and a single URL string,
// matching what storefront clients actually send.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*s = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if one == "" {
		*s = nil
		return nil
	}
	*s = []string{one}
	return nil
}

type submitReviewRequest struct {
	ProductID      int64      `json:"product_id" validate:"required,gt=0"`
	UserID         int64      `json:"user_id" validate:"required,gt=0"`
	Comment        string     `json:"comment" validate:"required"`
	Rating         *int64     `json:"rating"`
	ParentReviewID *int64     `json:"parent_review_id"`
	ImageURLs      stringList `json:"image_urls"`
}

// SubmitReview handles the structured-body submission shape: image bytes are
// fetched from the supplied URLs.
func SubmitReview(svc reviews.Service, fetcher *reviews.ImageFetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		var payload submitReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.Submit(r.Context(), reviews.Submission{
			ProductID:      payload.ProductID,
			UserID:         payload.UserID,
			Comment:        payload.Comment,
			Rating:         payload.Rating,
			ParentReviewID: payload.ParentReviewID,
			Images:         fetcher.Sources(payload.ImageURLs),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeSubmitResult(w, res)
	}
}

// SubmitReviewForm handles the multipart shape: image bytes arrive with the
// request under the "images" field.
func SubmitReviewForm(svc reviews.Service, cfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		if err := r.ParseMultipartForm(cfg.MaxMultipartMB << 20); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		productID, err := validators.FormInt64(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.FormInt64(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rating, err := validators.FormOptionalInt64(r, "rating")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		parentID, err := validators.FormOptionalInt64(r, "parent_review_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		files, err := readUploadedImages(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.Submit(r.Context(), reviews.Submission{
			ProductID:      productID,
			UserID:         userID,
			Comment:        r.FormValue("comment"),
			Rating:         rating,
			ParentReviewID: parentID,
			Images:         reviews.InlineSources(files),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeSubmitResult(w, res)
	}
}

func readUploadedImages(r *http.Request) ([]reviews.InlineImage, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		return nil, nil
	}
	files := make([]reviews.InlineImage, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading uploaded image")
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading uploaded image")
		}
		files = append(files, reviews.InlineImage{FileName: header.Filename, Data: data})
	}
	return files, nil
}

func writeSubmitResult(w http.ResponseWriter, res *reviews.SubmitResult) {
	responses.WriteSuccess(w, types.SubmitReviewResponse{
		Error:             false,
		Message:           res.Message,
		ReviewID:          res.ReviewID,
		UploadedImageURLs: res.UploadedImageURLs,
	})
}
