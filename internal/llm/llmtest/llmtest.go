// Package llmtest provides a scripted completion capability for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/xaenox/vikas-bot/internal/llm"
)

// Completer replays canned replies. When Replies is exhausted the last entry
// is repeated; Err, when set, is returned instead of any reply.
type Completer struct {
	Disabled bool
	Replies  []string
	Err      error

	mu      sync.Mutex
	calls   [][]llm.Message
	options []llm.Options
}

func (c *Completer) Available() bool {
	return !c.Disabled
}

func (c *Completer) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, messages)
	c.options = append(c.options, opts)
	if c.Disabled {
		return "", llm.ErrUnavailable
	}
	if c.Err != nil {
		return "", c.Err
	}
	if len(c.Replies) == 0 {
		return "", nil
	}
	i := len(c.calls) - 1
	if i >= len(c.Replies) {
		i = len(c.Replies) - 1
	}
	return c.Replies[i], nil
}

// Calls returns how many completions were requested
func (c *Completer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// LastPrompt returns the content of the final message of the latest call
func (c *Completer) LastPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return ""
	}
	last := c.calls[len(c.calls)-1]
	if len(last) == 0 {
		return ""
	}
	return last[len(last)-1].Content
}

// LastOptions returns the options of the latest call
func (c *Completer) LastOptions() llm.Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.options) == 0 {
		return llm.Options{}
	}
	return c.options[len(c.options)-1]
}
