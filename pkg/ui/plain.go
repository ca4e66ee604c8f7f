package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tcnksm/go-input"
)

// FormatMessage renders one transcript message as a plain text block.
func FormatMessage(m chat.Message) string {
	who := "assistant"
	if m.IsUser {
		who = "you"
	}
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp, who, m.Text)
}

// WriteTranscript prints every message of s, skipping the loading placeholder.
func WriteTranscript(w io.Writer, s chat.State) error {
	for _, m := range s.Messages() {
		if _, err := fmt.Fprintln(w, FormatMessage(m)); err != nil {
			return err
		}
	}
	return nil
}

// eofReader remembers whether the underlying reader hit EOF. go-input turns
// EOF into an empty answer, so the line loop needs this to terminate.
type eofReader struct {
	r   io.Reader
	eof atomic.Bool
}

func (e *eofReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if errors.Is(err, io.EOF) {
		e.eof.Store(true)
	}
	return n, err
}

// LineUI is the line-oriented binding used when stdout is not a terminal.
// Lines are questions; lines starting with a slash are commands.
type LineUI struct {
	ctrl        *chat.Controller
	out         io.Writer
	in          *eofReader
	ui          *input.UI
	downloadDir string
	logger      zerolog.Logger

	mu      sync.Mutex
	printed int
	status  chat.HealthStatus
}

func NewLineUI(ctrl *chat.Controller, in io.Reader, out io.Writer, downloadDir string) *LineUI {
	r := &eofReader{r: in}
	if downloadDir == "" {
		downloadDir = "."
	}
	l := &LineUI{
		ctrl:        ctrl,
		out:         out,
		in:          r,
		downloadDir: downloadDir,
		logger:      log.With().Str("component", "line-ui").Logger(),
	}
	l.ui = &input.UI{Writer: lockedWriter{l}, Reader: r}
	return l
}

// lockedWriter serializes prompt output with the follower goroutine.
type lockedWriter struct{ l *LineUI }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	return w.l.out.Write(p)
}

const lineHelp = `commands:
  /docs              list knowledge base documents
  /view N            print document N
  /download N        save document N
  /status            show the connection status
  /quit              leave the chat`

// Run reads questions until the input ends, /quit is entered, the context is
// cancelled or the interaction limit locks the session.
func (l *LineUI) Run(ctx context.Context) error {
	followCtx, cancel := context.WithCancel(ctx)
	followDone := make(chan struct{})
	go func() {
		defer close(followDone)
		l.follow(followCtx)
	}()
	defer func() {
		cancel()
		<-followDone
	}()

	l.println("Type a question, or /help for commands.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		if l.locked() {
			return nil
		}

		line, err := l.ui.Ask("you", &input.Options{HideOrder: true})
		if err != nil {
			l.logger.Debug().Err(err).Msg("input closed")
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if l.in.eof.Load() {
				return nil
			}
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := l.command(ctx, line)
			if err != nil {
				l.println("error: " + err.Error())
			}
			if quit {
				return nil
			}
			continue
		}

		if l.ctrl.Snapshot().InputDisabled {
			l.println("chat is disabled, question not sent")
			l.locked()
			return nil
		}
		l.ctrl.SetInput(line)
		l.ctrl.AskQuestion(ctx)
		l.flush()
	}
}

func (l *LineUI) locked() bool {
	s := l.ctrl.Snapshot()
	if !s.InputDisabled {
		return false
	}
	l.flush()
	if p := s.LimitPopup; p != nil {
		l.println("")
		l.println(p.Title)
		for _, b := range p.Body {
			l.println(b)
		}
		l.println(p.CallToAction + ": " + p.URL)
	}
	return true
}

func (l *LineUI) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		l.println(lineHelp)
	case "/status":
		l.println(l.ctrl.Snapshot().Status.Text)
	case "/docs":
		l.printDocuments()
	case "/view":
		card, err := l.card(fields)
		if err != nil {
			return false, err
		}
		l.ctrl.ViewDocument(ctx, card.ID, card.Filename, card.Type, card.Title)
		o := l.ctrl.Snapshot().Overlay
		l.println("== " + o.Title + " ==")
		switch o.Phase {
		case chat.OverlayPDF:
			l.println(fmt.Sprintf("PDF document (%d bytes): %s", o.Bytes, o.EmbedURL))
		case chat.OverlayError, chat.OverlayBinary:
			l.println(o.Message)
			l.println(o.Hint)
		default:
			l.println(o.Content)
		}
		l.ctrl.CloseOverlay()
	case "/download":
		card, err := l.card(fields)
		if err != nil {
			return false, err
		}
		return false, l.download(ctx, card)
	default:
		return false, errors.Errorf("unknown command %s, try /help", fields[0])
	}
	return false, nil
}

func (l *LineUI) card(fields []string) (chat.DocumentCard, error) {
	if len(fields) < 2 {
		return chat.DocumentCard{}, errors.New("missing document number, see /docs")
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return chat.DocumentCard{}, errors.Wrapf(err, "invalid document number %q", fields[1])
	}
	cards := l.ctrl.Snapshot().Documents.Cards
	if n < 1 || n > len(cards) {
		return chat.DocumentCard{}, errors.Errorf("no document %d, see /docs", n)
	}
	return cards[n-1], nil
}

func (l *LineUI) download(ctx context.Context, card chat.DocumentCard) error {
	target := filepath.Join(l.downloadDir, filepath.Base(card.Filename))
	if _, err := os.Stat(target); err == nil {
		answer, err := l.ui.Ask(fmt.Sprintf("%s exists, overwrite? [y/n]", target), &input.Options{
			Default:  "n",
			Required: true,
			Loop:     true,
			ValidateFunc: func(answer string) error {
				switch answer {
				case "y", "Y", "n", "N":
					return nil
				default:
					return errors.Errorf("please enter 'y' or 'n'")
				}
			},
		})
		if err != nil {
			return errors.Wrap(err, "failed to get user input")
		}
		if answer != "y" && answer != "Y" {
			return nil
		}
	}
	path, err := l.ctrl.DownloadDocument(ctx, card.Filename, l.downloadDir)
	if err != nil {
		return err
	}
	l.println("saved " + path)
	return nil
}

func (l *LineUI) printDocuments() {
	panel := l.ctrl.Snapshot().Documents
	if panel.Phase != chat.PanelReady {
		l.println(panel.Message)
		return
	}
	for i, c := range panel.Cards {
		l.println(fmt.Sprintf("%2d. [%s] %s (%s)", i+1, c.Type.Kind(), c.Title, c.Size))
		if c.Description != "" {
			l.println("    " + c.Description)
		}
	}
}

// follow prints messages that arrive outside a question, like the welcome
// greeting or the lockout notice, and status changes.
func (l *LineUI) follow(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.ctrl.Updates():
			l.flush()
		}
	}
}

func (l *LineUI) flush() {
	s := l.ctrl.Snapshot()
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := s.Messages()
	for _, m := range msgs[min(l.printed, len(msgs)):] {
		_, _ = fmt.Fprintln(l.out, FormatMessage(m))
	}
	if len(msgs) > l.printed {
		l.printed = len(msgs)
	}
	if s.Status != l.status && s.Status.Text != chat.StatusConnecting {
		_, _ = fmt.Fprintln(l.out, "-- "+s.Status.Text)
	}
	l.status = s.Status
}

func (l *LineUI) println(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.out, s)
}
