package types

// SubmitReviewResponse is the success payload for review submissions. The
// error flag is part of the wire contract consumed by the storefront.
type SubmitReviewResponse struct {
	Error             bool     `json:"error"`
	Message           string   `json:"message"`
	ReviewID          int64    `json:"review_id"`
	UploadedImageURLs []string `json:"uploaded_image_urls"`
}

// ErrorEnvelope is the failure payload shared by every endpoint.
type ErrorEnvelope struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
