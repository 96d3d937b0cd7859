// Package tokens estimates prompt sizes for history trimming.
package tokens

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding matches the tokenizer family of current chat models closely
// enough for budgeting.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens with a BPE encoding and falls back to a rune based
// estimate when the encoding cannot be loaded (offline hosts, unknown name).
type Counter struct {
	encoding string
	logger   *slog.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter constructs a lazy counter; the encoding is loaded on first use.
func NewCounter(encoding string, logger *slog.Logger) *Counter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Counter{encoding: encoding, logger: logger.With("component", "tokens.counter")}
}

// Count implements support.TokenCounter.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := c.load(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return Estimate(text)
}

func (c *Counter) load() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.logger.Warn("token encoding unavailable, using estimate", "encoding", c.encoding, "error", err)
			return
		}
		c.enc = enc
	})
	return c.enc
}

// Estimate approximates four characters per token.
func Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
