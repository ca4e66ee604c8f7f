package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-go-golems/docchat/pkg/api"
)

const (
	loadingText          = "Thinking"
	askFailedFallback    = "API request failed"
	unknownErrorFallback = "Unknown error occurred"
)

// AddMessage appends a turn stamped with the current local time.
func (c *Controller) AddMessage(text string, isUser bool) {
	msg := Message{Text: text, IsUser: isUser, Timestamp: FormatClock(c.now())}
	c.update(func(s *State) {
		s.Transcript = append(s.Transcript, Entry{Message: msg})
	})
	c.logger.Debug().Bool("user", isUser).Int("len", len(text)).Msg("message added")
}

// AddLoadingMessage shows the "thinking" placeholder. There is never more
// than one.
func (c *Controller) AddLoadingMessage() {
	c.update(func(s *State) {
		if s.Loading() {
			return
		}
		s.Transcript = append(s.Transcript, Entry{
			Message: Message{Text: loadingText, Timestamp: FormatClock(c.now())},
			Loading: true,
		})
	})
}

// RemoveLoadingMessage is a no-op when no placeholder is shown.
func (c *Controller) RemoveLoadingMessage() {
	c.update(func(s *State) {
		idx := s.loadingIndex()
		if idx < 0 {
			return
		}
		s.Transcript = append(s.Transcript[:idx], s.Transcript[idx+1:]...)
	})
}

// AskQuestion submits the current input. The input is taken and cleared in
// one step, so concurrent calls never send the same question twice. Every
// failure ends in a visible bot message; nothing is returned to the caller.
func (c *Controller) AskQuestion(ctx context.Context) {
	c.mu.Lock()
	raw := c.state.Input
	question := strings.TrimSpace(raw)
	disabled := c.state.InputDisabled
	taken := question != "" && !disabled
	if taken {
		c.state.Input = ""
	}
	c.mu.Unlock()

	if question == "" {
		c.logger.Debug().Msg("empty question, ignoring")
		return
	}
	if disabled {
		c.logger.Debug().Msg("input disabled, ignoring question")
		return
	}
	c.notify()

	if c.token.Present() && c.EnforceBeforeAsk(ctx) {
		c.logger.Info().Msg("interaction limit reached, question not sent")
		// the locked input keeps the unsent question visible
		c.update(func(s *State) {
			if s.Input == "" {
				s.Input = raw
			}
		})
		return
	}

	c.AddMessage(question, true)
	c.AddLoadingMessage()

	resp, err := c.backend.Ask(ctx, question)
	c.RemoveLoadingMessage()
	if err != nil {
		c.logger.Error().Err(err).Msg("ask failed")
		c.AddMessage(askErrorText(err), false)
		return
	}

	c.AddMessage(resp.Answer, false)

	if c.token.Present() {
		c.sched.After("post-ask-quota", c.postAskDelay, func(ctx context.Context) {
			c.EnforceAfterAsk(ctx)
		})
	}
}

func askErrorText(err error) string {
	var detail string
	if httpErr, ok := api.AsHTTPError(err); ok {
		detail = httpErr.Detail
		if detail == "" {
			detail = askFailedFallback
		}
	} else {
		detail = err.Error()
		if detail == "" {
			detail = unknownErrorFallback
		}
	}
	return fmt.Sprintf("I'm sorry, I encountered an error: %s. Please try again.", detail)
}
