package chat

import (
	"context"

	"github.com/go-go-golems/docchat/pkg/api"
)

// CheckHealth polls the liveness endpoint and updates the status indicator.
// A bad status and a failed connection are reported differently.
func (c *Controller) CheckHealth(ctx context.Context) bool {
	err := c.backend.Health(ctx)

	status := HealthStatus{Text: StatusConnected, Indicator: IndicatorConnected}
	switch {
	case err == nil:
		c.logger.Debug().Msg("health check ok")
	case api.IsHTTPError(err):
		c.logger.Warn().Err(err).Msg("health check returned an error status")
		status = HealthStatus{Text: StatusAPIError, Indicator: IndicatorError}
	default:
		c.logger.Warn().Err(err).Msg("health check failed")
		status = HealthStatus{Text: StatusConnectionFailed, Indicator: IndicatorError}
	}

	c.update(func(s *State) {
		s.Status = status
	})
	return err == nil
}
