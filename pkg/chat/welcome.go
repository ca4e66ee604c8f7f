package chat

import (
	"context"
	"fmt"
)

// WelcomeText is the greeting shown to a first-time visitor.
func WelcomeText(name string) string {
	return fmt.Sprintf("Welcome, %s! I'm your AI assistant. How can I help you today?", name)
}

// CheckFirstVisit greets a customer whose interaction count is still 0. It
// runs at most once per controller; every failure is logged and swallowed.
func (c *Controller) CheckFirstVisit(ctx context.Context) {
	c.welcomeOnce.Do(func() {
		c.checkFirstVisit(ctx)
	})
}

func (c *Controller) checkFirstVisit(ctx context.Context) {
	if !c.token.Present() {
		return
	}

	count, err := c.backend.InteractionCount(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("welcome: could not fetch interaction count")
		return
	}
	if IsLimitReached(count.Count) {
		c.logger.Debug().Int("count", count.Count).Msg("welcome: limit reached, skipping")
		return
	}

	info, err := c.backend.TokenInfo(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("welcome: could not fetch customer info")
		return
	}

	if count.Count != 0 || info.CustomerName == "" {
		c.logger.Debug().Int("count", count.Count).Bool("name", info.CustomerName != "").Msg("welcome: not a first visit")
		return
	}
	c.AddMessage(WelcomeText(info.CustomerName), false)
}
