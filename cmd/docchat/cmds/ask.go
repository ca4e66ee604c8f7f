package cmds

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/settings"
	"github.com/go-go-golems/docchat/pkg/ui"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/pkg/errors"
)

type AskSettings struct {
	Question []string `glazed:"question"`
	Copy     bool     `glazed:"copy"`
}

type AskCommand struct {
	*cmds.CommandDescription
}

var _ cmds.WriterCommand = &AskCommand{}

func NewAskCommand() (*AskCommand, error) {
	conn, err := settings.NewConnectionSection()
	if err != nil {
		return nil, err
	}
	return &AskCommand{
		CommandDescription: cmds.NewCommandDescription(
			"ask",
			cmds.WithShort("Ask a single question and print the answer"),
			cmds.WithLong("Ask one question through the same quota gate as the chat and print the resulting transcript."),
			cmds.WithFlags(
				fields.New(
					"copy",
					fields.TypeBool,
					fields.WithHelp("Copy the answer to the clipboard"),
					fields.WithDefault(false),
				),
			),
			cmds.WithArguments(
				fields.New(
					"question",
					fields.TypeStringList,
					fields.WithHelp("Question to ask"),
					fields.WithRequired(true),
				),
			),
			cmds.WithSections(conn),
		),
	}, nil
}

func (c *AskCommand) RunIntoWriter(ctx context.Context, parsedLayers *values.Values, w io.Writer) error {
	s := &AskSettings{}
	if err := parsedLayers.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "initialize settings")
	}
	question := strings.TrimSpace(strings.Join(s.Question, " "))
	if question == "" {
		return errors.New("question must not be empty")
	}

	ctrl, err := newController(parsedLayers, false, chat.WithContext(ctx))
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	ctrl.SetInput(question)
	ctrl.AskQuestion(ctx)
	// the delayed post-answer check would outlive this command, run it inline
	if ctrl.Token().Present() {
		ctrl.EnforceAfterAsk(ctx)
	}

	state := ctrl.Snapshot()
	if err := ui.WriteTranscript(w, state); err != nil {
		return err
	}
	if p := state.LimitPopup; p != nil {
		_, _ = fmt.Fprintf(w, "\n%s\n%s\n%s: %s\n", p.Title, strings.Join(p.Body, "\n"), p.CallToAction, p.URL)
		return nil
	}

	if s.Copy {
		if answer := lastBotMessage(state); answer != "" {
			if err := clipboard.WriteAll(answer); err != nil {
				return errors.Wrap(err, "copy answer to clipboard")
			}
		}
	}
	return nil
}

func lastBotMessage(s chat.State) string {
	msgs := s.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsUser {
			return msgs[i].Text
		}
	}
	return ""
}
