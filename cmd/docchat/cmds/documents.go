package cmds

import (
	"context"
	"fmt"

	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	glazed_settings "github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/pkg/errors"
)

type DocumentsListCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = &DocumentsListCommand{}

func NewDocumentsListCommand() (*DocumentsListCommand, error) {
	glazedSection, err := glazed_settings.NewGlazedSection()
	if err != nil {
		return nil, err
	}
	commandSettingsSection, err := cli.NewCommandSettingsSection()
	if err != nil {
		return nil, err
	}
	conn, err := settings.NewConnectionSection()
	if err != nil {
		return nil, err
	}

	return &DocumentsListCommand{
		CommandDescription: cmds.NewCommandDescription(
			"list",
			cmds.WithShort("List knowledge base documents"),
			cmds.WithSections(conn, glazedSection, commandSettingsSection),
		),
	}, nil
}

func (c *DocumentsListCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *values.Values,
	gp middlewares.Processor,
) error {
	ctrl, err := newController(parsedLayers, false, chat.WithContext(ctx))
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	ctrl.LoadDocuments(ctx)
	panel := ctrl.Snapshot().Documents
	if panel.Phase == chat.PanelError {
		return errors.New(panel.Message)
	}

	for _, card := range panel.Cards {
		row := types.NewRow(
			types.MRP("id", card.ID),
			types.MRP("filename", card.Filename),
			types.MRP("type", string(card.Type.Kind())),
			types.MRP("title", card.Title),
			types.MRP("description", card.Description),
			types.MRP("size", card.Size),
			types.MRP("url", card.DownloadURL),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

type DocumentsDownloadSettings struct {
	Filename  string `glazed:"filename"`
	OutputDir string `glazed:"output-dir"`
}

type DocumentsDownloadCommand struct {
	*cmds.CommandDescription
}

var _ cmds.BareCommand = &DocumentsDownloadCommand{}

func NewDocumentsDownloadCommand() (*DocumentsDownloadCommand, error) {
	conn, err := settings.NewConnectionSection()
	if err != nil {
		return nil, err
	}
	return &DocumentsDownloadCommand{
		CommandDescription: cmds.NewCommandDescription(
			"download",
			cmds.WithShort("Download a knowledge base document"),
			cmds.WithFlags(
				fields.New(
					"output-dir",
					fields.TypeString,
					fields.WithHelp("Directory to save the document in (~ is expanded)"),
					fields.WithDefault("."),
					fields.WithShortFlag("o"),
				),
			),
			cmds.WithArguments(
				fields.New(
					"filename",
					fields.TypeString,
					fields.WithHelp("Filename as listed by 'documents list'"),
					fields.WithRequired(true),
				),
			),
			cmds.WithSections(conn),
		),
	}, nil
}

func (c *DocumentsDownloadCommand) Run(ctx context.Context, parsedLayers *values.Values) error {
	s := &DocumentsDownloadSettings{}
	if err := parsedLayers.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "initialize settings")
	}

	ctrl, err := newController(parsedLayers, false, chat.WithContext(ctx))
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	path, err := ctrl.DownloadDocument(ctx, s.Filename, s.OutputDir)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
