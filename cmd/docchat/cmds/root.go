package cmds

import (
	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/sources"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List and download knowledge base documents",
}

func AddToRootCommand(rootCmd *cobra.Command) error {
	chatCmd, err := NewChatCommand()
	if err != nil {
		return err
	}
	askCmd, err := NewAskCommand()
	if err != nil {
		return err
	}
	healthCmd, err := NewHealthCommand()
	if err != nil {
		return err
	}
	listCmd, err := NewDocumentsListCommand()
	if err != nil {
		return err
	}
	downloadCmd, err := NewDocumentsDownloadCommand()
	if err != nil {
		return err
	}

	for _, c := range []cmds.Command{chatCmd, askCmd, healthCmd} {
		cobraCmd, err := cli.BuildCobraCommand(c, cli.WithCobraMiddlewaresFunc(getMiddlewares))
		if err != nil {
			return err
		}
		rootCmd.AddCommand(cobraCmd)
	}
	for _, c := range []cmds.Command{listCmd, downloadCmd} {
		cobraCmd, err := cli.BuildCobraCommand(c, cli.WithCobraMiddlewaresFunc(getMiddlewares))
		if err != nil {
			return err
		}
		documentsCmd.AddCommand(cobraCmd)
	}
	rootCmd.AddCommand(documentsCmd)
	return nil
}

func getMiddlewares(
	_ *values.Values,
	cmd *cobra.Command,
	args []string,
) ([]sources.Middleware, error) {
	return []sources.Middleware{
		sources.FromCobra(cmd),
		sources.FromArgs(args),
		sources.FromEnv("DOCCHAT",
			fields.WithSource("env"),
		),
		sources.FromDefaults(),
	}, nil
}

// newController wires a controller from the parsed connection section and,
// when the command carries it, the timers section.
func newController(parsed *values.Values, withTimers bool, options ...chat.Option) (*chat.Controller, error) {
	conn, err := settings.DecodeConnection(parsed)
	if err != nil {
		return nil, err
	}
	client, sc, err := conn.Client()
	if err != nil {
		return nil, err
	}
	if withTimers {
		timers, err := settings.DecodeTimers(parsed)
		if err != nil {
			return nil, err
		}
		timerOptions, err := timers.Options()
		if err != nil {
			return nil, err
		}
		options = append(timerOptions, options...)
	}
	return chat.New(client, sc.Token, options...), nil
}
