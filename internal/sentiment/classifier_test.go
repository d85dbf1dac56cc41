package sentiment

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/zamyshop/reviews-backend/pkg/config"
	"github.com/zamyshop/reviews-backend/pkg/logger"
)

func TestParseOutput(t *testing.T) {
	cases := []struct {
		name   string
		out    string
		want   Polarity
		parsed bool
	}{
		{name: "numeric zero", out: "0", want: Negative, parsed: true},
		{name: "numeric zero padded", out: "00", want: Negative, parsed: true},
		{name: "numeric one", out: "1", want: Positive, parsed: true},
		{name: "numeric other", out: "12", want: Positive, parsed: true},
		{name: "negative word", out: "negative", want: Negative, parsed: true},
		{name: "negative uppercase", out: "NEGATIVE sentiment", want: Negative, parsed: true},
		{name: "neg substring", out: "label=neg", want: Negative, parsed: true},
		{name: "positive word", out: "positive", want: Positive, parsed: true},
		{name: "arbitrary text", out: "beats me", want: Positive, parsed: true},
		{name: "whitespace padded digit", out: "  0\n", want: Negative, parsed: true},
		{name: "empty", out: "", parsed: false, want: Positive},
		{name: "whitespace only", out: "  \n", parsed: false, want: Positive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseOutput(tc.out)
			if ok != tc.parsed {
				t.Fatalf("parsed=%v, want %v", ok, tc.parsed)
			}
			if got != tc.want {
				t.Fatalf("polarity=%d, want %d", got, tc.want)
			}
		})
	}
}

func newTestClassifier(t *testing.T, cfg config.SentimentConfig) *ScriptClassifier {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewScriptClassifier(cfg, logg, nil)
}

func TestClassifyEmptyTextSkipsScript(t *testing.T) {
	c := newTestClassifier(t, config.SentimentConfig{
		ScriptPath:   "/nonexistent/predict.py",
		Interpreters: []string{"false"},
		Timeout:      time.Second,
	})

	if got := c.Classify(context.Background(), "   "); got != Positive {
		t.Fatalf("empty text should default to positive, got %d", got)
	}
}

func TestClassifyMissingScriptFailsOpen(t *testing.T) {
	c := newTestClassifier(t, config.SentimentConfig{
		ScriptPath:   "/nonexistent/predict.py",
		Interpreters: []string{"false"},
		Timeout:      time.Second,
	})

	if got := c.Classify(context.Background(), "terrible product"); got != Positive {
		t.Fatalf("missing script should default to positive, got %d", got)
	}
}

func TestClassifyInterpreterFailureFailsOpen(t *testing.T) {
	// /bin/false exits non-zero for every invocation; the adapter must
	// swallow the failure and return the positive default.
	script := t.TempDir() + "/predict.py"
	writeFile(t, script, "print(0)\n")

	c := newTestClassifier(t, config.SentimentConfig{
		ScriptPath:   script,
		Interpreters: []string{"false"},
		Timeout:      time.Second,
	})

	if got := c.Classify(context.Background(), "bad quality"); got != Positive {
		t.Fatalf("interpreter failure should default to positive, got %d", got)
	}
}

func TestClassifyUsesScriptOutput(t *testing.T) {
	// Use /bin/echo as the "interpreter": it prints its arguments, so the
	// combined output is "<script path> <text>". A script path containing
	// "neg" drives the negative branch without needing python installed.
	dir := t.TempDir()
	script := dir + "/neg-marker"
	writeFile(t, script, "")

	c := newTestClassifier(t, config.SentimentConfig{
		ScriptPath:   script,
		Interpreters: []string{"echo"},
		Timeout:      time.Second,
	})

	if got := c.Classify(context.Background(), "anything"); got != Negative {
		t.Fatalf("expected negative from script output, got %d", got)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
