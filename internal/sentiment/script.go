package sentiment

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/zamyshop/reviews-backend/pkg/config"
	"github.com/zamyshop/reviews-backend/pkg/logger"
	"github.com/zamyshop/reviews-backend/pkg/metrics"
)

// scriptCandidates are the checkout locations probed when no script path is
// configured, broadest first.
var scriptCandidates = []string{
	"Model_ML/predict.py",
	"../Model_ML/predict.py",
	"../py_api/Model_ML/predict.py",
	"../../Model_ML/predict.py",
}

// ScriptClassifier shells out to the prediction script. A circuit breaker
// guards the subprocess; an open breaker is just another failure under the
// fail-open policy.
type ScriptClassifier struct {
	script       string
	interpreters []string
	timeout      time.Duration
	logg         *logger.Logger
	metrics      *metrics.ReviewMetrics
	breaker      *gobreaker.CircuitBreaker[string]
}

func NewScriptClassifier(cfg config.SentimentConfig, logg *logger.Logger, m *metrics.ReviewMetrics) *ScriptClassifier {
	script := locateScript(cfg.ScriptPath)

	interpreters := make([]string, 0, len(cfg.Interpreters))
	for _, candidate := range cfg.Interpreters {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			interpreters = append(interpreters, trimmed)
		}
	}
	if len(interpreters) == 0 {
		interpreters = []string{"python3", "python"}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &ScriptClassifier{
		script:       script,
		interpreters: interpreters,
		timeout:      timeout,
		logg:         logg,
		metrics:      m,
	}

	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "sentiment-script",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	ctx := context.Background()
	if logg != nil {
		if script == "" {
			logg.Warn(ctx, "sentiment predict script not found in candidate paths")
		} else {
			logg.Info(logg.WithField(ctx, "script", script), "sentiment predict script resolved")
		}
	}

	return c
}

// Classify runs the predict script against the comment text. Empty text and
// every failure mode resolve to Positive without surfacing an error.
func (c *ScriptClassifier) Classify(ctx context.Context, text string) Polarity {
	if strings.TrimSpace(text) == "" {
		if c.logg != nil {
			c.logg.Debug(ctx, "sentiment: empty text, defaulting to positive")
		}
		return Positive
	}
	if c.script == "" {
		c.fallback(ctx, "sentiment: predict script unavailable", nil)
		return Positive
	}

	out, err := c.breaker.Execute(func() (string, error) {
		return c.run(ctx, text)
	})
	if err != nil {
		c.fallback(ctx, "sentiment: classification failed, defaulting to positive", err)
		return Positive
	}

	polarity, ok := ParseOutput(out)
	if !ok {
		c.fallback(ctx, "sentiment: unparseable classifier output, defaulting to positive", nil)
		return Positive
	}
	return polarity
}

// run tries each configured interpreter in order and returns the first
// non-empty combined output.
func (c *ScriptClassifier) run(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for _, interpreter := range c.interpreters {
		cmd := exec.CommandContext(ctx, interpreter, c.script, text)
		cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")

		out, err := cmd.CombinedOutput()
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", interpreter, err)
			if c.logg != nil {
				c.logg.Warn(c.logg.WithField(ctx, "interpreter", interpreter), "sentiment: interpreter failed")
			}
			continue
		}
		if trimmed := strings.TrimSpace(string(out)); trimmed != "" {
			return trimmed, nil
		}
		lastErr = fmt.Errorf("%s: empty output", interpreter)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no interpreters configured")
	}
	return "", lastErr
}

func (c *ScriptClassifier) fallback(ctx context.Context, msg string, err error) {
	c.metrics.IncClassifierFallback()
	if c.logg == nil {
		return
	}
	if err != nil {
		c.logg.Error(ctx, msg, err)
		return
	}
	c.logg.Warn(ctx, msg)
}

func locateScript(configured string) string {
	if trimmed := strings.TrimSpace(configured); trimmed != "" {
		if info, err := os.Stat(trimmed); err == nil && !info.IsDir() {
			return trimmed
		}
		return ""
	}
	for _, candidate := range scriptCandidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs
			}
			return candidate
		}
	}
	return ""
}
