package sentiment

import (
	"context"
	"strconv"
	"strings"
)

// Polarity is the two-valued sentiment classification stored on reviews.
type Polarity int

const (
	Negative Polarity = 0
	Positive Polarity = 1
)

// Classifier resolves comment text to a polarity. Implementations are
// fail-open: any failure of the underlying capability yields Positive, never
// an error, so a classification outage cannot block review submission.
type Classifier interface {
	Classify(ctx context.Context, text string) Polarity
}

// ParseOutput maps raw classifier output to a polarity. The checks run in the
// original model-script order: purely numeric output first, then a negativity
// substring, then the positive default. Empty output is unparseable.
func ParseOutput(out string) (Polarity, bool) {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return Positive, false
	}
	if isDigits(trimmed) {
		value, err := strconv.Atoi(trimmed)
		if err == nil && value == 0 {
			return Negative, true
		}
		return Positive, true
	}
	if strings.Contains(strings.ToLower(trimmed), "neg") {
		return Negative, true
	}
	return Positive, true
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(value) > 0
}
