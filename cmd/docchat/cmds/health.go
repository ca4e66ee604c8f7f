package cmds

import (
	"context"
	"fmt"

	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/pkg/errors"
)

type HealthCommand struct {
	*cmds.CommandDescription
}

var _ cmds.BareCommand = &HealthCommand{}

func NewHealthCommand() (*HealthCommand, error) {
	conn, err := settings.NewConnectionSection()
	if err != nil {
		return nil, err
	}
	return &HealthCommand{
		CommandDescription: cmds.NewCommandDescription(
			"health",
			cmds.WithShort("Check whether the backend is reachable"),
			cmds.WithSections(conn),
		),
	}, nil
}

func (c *HealthCommand) Run(ctx context.Context, parsedLayers *values.Values) error {
	ctrl, err := newController(parsedLayers, false, chat.WithContext(ctx))
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	ok := ctrl.CheckHealth(ctx)
	status := ctrl.Snapshot().Status
	fmt.Println(status.Text)
	if !ok {
		return errors.Errorf("backend unhealthy: %s", status.Text)
	}
	return nil
}
