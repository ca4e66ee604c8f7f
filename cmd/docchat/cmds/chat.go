package cmds

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/settings"
	"github.com/go-go-golems/docchat/pkg/ui"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ChatSettings struct {
	Plain       bool   `glazed:"plain"`
	DownloadDir string `glazed:"download-dir"`
	TUILogFile  string `glazed:"tui-log-file"`
}

type ChatCommand struct {
	*cmds.CommandDescription
}

var _ cmds.BareCommand = &ChatCommand{}

func NewChatCommand() (*ChatCommand, error) {
	sections, err := settings.Sections()
	if err != nil {
		return nil, err
	}
	return &ChatCommand{
		CommandDescription: cmds.NewCommandDescription(
			"chat",
			cmds.WithShort("Start an interactive chat session"),
			cmds.WithLong(`Start an interactive session against the knowledge base.

A full screen interface is used when stdout is a terminal. Otherwise, or with
--plain, questions are read line by line from stdin.`),
			cmds.WithFlags(
				fields.New(
					"plain",
					fields.TypeBool,
					fields.WithHelp("Use the line-oriented interface even on a terminal"),
					fields.WithDefault(false),
				),
				fields.New(
					"download-dir",
					fields.TypeString,
					fields.WithHelp("Directory downloaded documents are saved to"),
					fields.WithDefault("."),
				),
				fields.New(
					"tui-log-file",
					fields.TypeString,
					fields.WithHelp("Write logs here while the full screen interface runs (discarded otherwise)"),
					fields.WithDefault(""),
				),
			),
			cmds.WithSections(sections...),
		),
	}, nil
}

func (c *ChatCommand) Run(ctx context.Context, parsedLayers *values.Values) error {
	s := &ChatSettings{}
	if err := parsedLayers.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "initialize settings")
	}

	useTUI := !s.Plain && isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
	if useTUI {
		closeLog, err := redirectLogs(s.TUILogFile)
		if err != nil {
			return err
		}
		defer closeLog()
	}

	ctrl, err := newController(parsedLayers, true, chat.WithContext(ctx))
	if err != nil {
		return err
	}
	ctrl.Start()
	defer ctrl.Stop()

	if !useTUI {
		return ui.NewLineUI(ctrl, os.Stdin, os.Stdout, s.DownloadDir).Run(ctx)
	}

	p := tea.NewProgram(
		ui.NewModel(ctx, ctrl, ui.WithDownloadDir(s.DownloadDir)),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "run chat interface")
	}
	return nil
}

// redirectLogs keeps log lines off the screen the TUI owns.
func redirectLogs(path string) (func(), error) {
	previous := log.Logger
	if path == "" {
		log.Logger = zerolog.Nop()
		return func() { log.Logger = previous }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", path)
	}
	log.Logger = log.Logger.Output(f)
	return func() {
		log.Logger = previous
		_ = f.Close()
	}, nil
}
