package chat

import (
	"context"
	"fmt"
)

// InteractionLimit is the number of question/answer exchanges a demo token
// gets. The server keeps the authoritative count; this side only displays it.
const InteractionLimit = 5

const (
	ContactURL     = "https://www.finitx.com/contact-us/"
	lockoutMessage = "You've reached the maximum number of interactions for this demo. " +
		"Please contact our sales team for a full version with unlimited interactions."
)

func IsLimitReached(count int) bool {
	return count >= InteractionLimit
}

// FetchCount polls the interaction count. known is false on any failure so
// callers can fail open.
func (c *Controller) FetchCount(ctx context.Context) (count int, known bool) {
	resp, err := c.backend.InteractionCount(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("could not fetch interaction count")
		return 0, false
	}
	return resp.Count, true
}

// EnforceBeforeAsk reports whether the question must be blocked, showing the
// limit popup if so.
func (c *Controller) EnforceBeforeAsk(ctx context.Context) bool {
	return c.checkLimit(ctx, "before-ask")
}

// EnforceAfterAsk catches the exchange that pushed the count over the limit.
func (c *Controller) EnforceAfterAsk(ctx context.Context) {
	c.checkLimit(ctx, "after-ask")
}

func (c *Controller) checkLimit(ctx context.Context, phase string) bool {
	if !c.token.Present() {
		return false
	}
	count, known := c.FetchCount(ctx)
	if !known {
		return false
	}
	if !IsLimitReached(count) {
		c.logger.Debug().Str("phase", phase).Int("count", count).Int("limit", InteractionLimit).Msg("limit not reached")
		return false
	}
	c.logger.Info().Str("phase", phase).Int("count", count).Msg("interaction limit reached")
	c.ShowLimitPopup()
	return true
}

// ShowLimitPopup locks the session: input and submit stay disabled until the
// process exits. A second call does nothing.
func (c *Controller) ShowLimitPopup() {
	c.mu.Lock()
	if c.state.LimitPopup != nil {
		c.mu.Unlock()
		return
	}
	c.state.LimitPopup = &LimitPopup{
		Title: "Interaction Limit Reached",
		Body: []string{
			fmt.Sprintf("You have reached the maximum number of interactions (%d) for this demo.", InteractionLimit),
			"Please contact us to learn more about our premium plans with unlimited interactions.",
		},
		CallToAction: "Contact Sales",
		URL:          ContactURL,
	}
	c.state.InputDisabled = true
	c.mu.Unlock()
	c.notify()

	c.AddMessage(lockoutMessage, false)
}
