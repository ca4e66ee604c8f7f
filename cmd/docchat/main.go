package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	clay "github.com/go-go-golems/clay/pkg"
	docchat_cmds "github.com/go-go-golems/docchat/cmd/docchat/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/logging"
	"github.com/go-go-golems/glazed/pkg/help"
	help_cmd "github.com/go-go-golems/glazed/pkg/help/cmd"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "docchat is a terminal client for the document question-answering service",
	Long: `docchat talks to the knowledge base chat backend. Pass the page URL
you were given, including its ?token= parameter, with --url.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitLoggerFromCobra(cmd)
	},
	SilenceUsage: true,
}

func main() {
	if err := clay.InitGlazed("docchat", rootCmd); err != nil {
		cobra.CheckErr(err)
	}

	helpSystem := help.NewHelpSystem()
	help_cmd.SetupCobraRootCommand(helpSystem, rootCmd)

	err := docchat_cmds.AddToRootCommand(rootCmd)
	cobra.CheckErr(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
