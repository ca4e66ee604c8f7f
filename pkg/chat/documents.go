package chat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

const (
	documentsLoadingMessage = "Loading documents..."
	documentsEmptyMessage   = "No knowledge base documents are currently available."
	documentsErrorMessage   = "Error loading documents. Please try again later."
	overlayLoadingMessage   = "Loading document content..."
	overlayDownloadHint     = "Try downloading the file instead."
)

// LoadDocuments replaces the documents panel with one card per document, an
// empty state, or a terminal error state. There is no retry.
func (c *Controller) LoadDocuments(ctx context.Context) {
	c.update(func(s *State) {
		s.Documents = DocumentsPanel{Phase: PanelLoading, Message: documentsLoadingMessage}
	})

	docs, err := c.backend.Documents(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to load documents")
		c.update(func(s *State) {
			s.Documents = DocumentsPanel{Phase: PanelError, Message: documentsErrorMessage}
		})
		return
	}

	if len(docs) == 0 {
		c.logger.Debug().Msg("no documents available")
		c.update(func(s *State) {
			s.Documents = DocumentsPanel{Phase: PanelEmpty, Message: documentsEmptyMessage}
		})
		return
	}

	cards := make([]DocumentCard, 0, len(docs))
	for _, d := range docs {
		cards = append(cards, DocumentCard{
			Document:    d,
			Icon:        IconFor(d.Type),
			DownloadURL: c.backend.DocumentURL(d.Filename),
		})
	}
	c.logger.Debug().Int("count", len(cards)).Msg("documents loaded")
	c.update(func(s *State) {
		s.Documents = DocumentsPanel{Phase: PanelReady, Cards: cards}
	})
}

// ViewDocument opens the preview overlay and fills it once the file arrives.
// A response for an overlay that was closed or reused meanwhile is dropped.
func (c *Controller) ViewDocument(ctx context.Context, id, filename string, typ api.DocumentType, title string) {
	c.mu.Lock()
	c.overlayGen++
	gen := c.overlayGen
	c.state.Overlay = Overlay{
		Open:       true,
		DocumentID: id,
		Filename:   filename,
		Type:       typ,
		Title:      title,
		Phase:      OverlayLoading,
		Message:    overlayLoadingMessage,
	}
	c.mu.Unlock()
	c.notify()

	c.logger.Debug().Str("document", id).Str("filename", filename).Str("type", string(typ)).Msg("viewing document")
	data, err := c.backend.FetchDocument(ctx, filename)

	c.mu.Lock()
	if gen != c.overlayGen {
		c.mu.Unlock()
		c.logger.Debug().Str("document", id).Msg("discarding stale document response")
		return
	}
	o := &c.state.Overlay
	switch {
	case err != nil:
		c.logger.Error().Err(err).Str("filename", filename).Msg("failed to fetch document")
		o.Phase = OverlayError
		o.Message = "Error loading document content: " + err.Error()
		o.Hint = overlayDownloadHint
	case typ.Kind() == api.DocumentTypePDF:
		o.Phase = OverlayPDF
		o.Message = ""
		o.EmbedURL = c.backend.DocumentURL(filename)
		o.Bytes = len(data)
	default:
		o.Bytes = len(data)
		text, ok := PrintableText(data)
		if !ok {
			o.Phase = OverlayBinary
			o.Message = fmt.Sprintf("Binary document (%d bytes), it cannot be shown as text.", len(data))
			o.Hint = overlayDownloadHint
			break
		}
		o.Phase = OverlayText
		o.Message = ""
		o.Content = text
	}
	c.mu.Unlock()
	c.notify()
}

// PrintableText returns data with every control rune except newline and tab
// removed, so it is inert in a terminal. ok is false for content that is not
// text: invalid UTF-8 or anything containing a NUL byte.
func PrintableText(data []byte) (string, bool) {
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return "", false
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, string(data)), true
}

// CloseOverlay is the close control.
func (c *Controller) CloseOverlay() {
	c.hideOverlay("close")
}

// ClickOverlayBackground is a click outside the overlay's content box. It has
// the same effect as CloseOverlay.
func (c *Controller) ClickOverlayBackground() {
	c.hideOverlay("background")
}

func (c *Controller) hideOverlay(trigger string) {
	c.mu.Lock()
	if !c.state.Overlay.Open {
		c.mu.Unlock()
		return
	}
	c.overlayGen++
	c.state.Overlay.Open = false
	c.mu.Unlock()
	c.notify()
	c.logger.Debug().Str("trigger", trigger).Msg("overlay closed")
}

// DownloadDocument saves /data/{filename} into dir and returns the written
// path. dir may start with ~.
func (c *Controller) DownloadDocument(ctx context.Context, filename, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return "", errors.Wrapf(err, "expand %s", dir)
	}
	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." {
		return "", errors.Errorf("invalid filename %q", filename)
	}

	body, err := c.backend.OpenDocument(ctx, filename)
	if err != nil {
		return "", errors.Wrapf(err, "download %s", filename)
	}
	defer func() { _ = body.Close() }()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	target := filepath.Join(dir, base)
	f, err := os.Create(target)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", target)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", errors.Wrapf(err, "write %s", target)
	}
	c.logger.Info().Str("filename", filename).Str("path", target).Int64("bytes", n).Msg("document downloaded")
	return target, nil
}
