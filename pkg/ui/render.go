package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/rs/zerolog/log"
)

// markdown renders bot answers and caches the output per text. The cache is
// reset whenever the wrap width changes.
type markdown struct {
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdown() *markdown {
	return &markdown{cache: map[string]string{}}
}

func (md *markdown) render(text string, width int) string {
	if width < 20 {
		width = 20
	}
	if md.renderer == nil || md.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			log.Debug().Err(err).Msg("could not create markdown renderer")
			return lipgloss.NewStyle().Width(width).Render(text)
		}
		md.renderer = r
		md.width = width
		md.cache = map[string]string{}
	}
	if out, ok := md.cache[text]; ok {
		return out
	}
	out, err := md.renderer.Render(text)
	if err != nil {
		out = text
	}
	out = strings.Trim(out, "\n")
	md.cache[text] = out
	return out
}

func renderTranscript(s chat.State, width int, md *markdown, spinner string) string {
	if len(s.Transcript) == 0 {
		return helpStyle.Render("Ask a question about the knowledge base to get started.")
	}

	var sb strings.Builder
	for i, e := range s.Transcript {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch {
		case e.Loading:
			sb.WriteString(spinner + " " + loadingStyle.Render(e.Text+"…"))
		case e.IsUser:
			sb.WriteString(userStyle.Render("You") + " " + timeStyle.Render(e.Timestamp) + "\n")
			sb.WriteString(lipgloss.NewStyle().Width(width).Render(e.Text))
		default:
			sb.WriteString(botStyle.Render("Assistant") + " " + timeStyle.Render(e.Timestamp) + "\n")
			sb.WriteString(md.render(e.Text, width))
		}
	}
	return sb.String()
}

func renderDocuments(panel chat.DocumentsPanel, selected int, focused bool, width int) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Knowledge Base"))
	sb.WriteString("\n\n")

	switch panel.Phase {
	case chat.PanelIdle:
		return sb.String()
	case chat.PanelLoading:
		sb.WriteString(loadingStyle.Render(panel.Message))
		return sb.String()
	case chat.PanelEmpty:
		sb.WriteString(helpStyle.Render(panel.Message))
		return sb.String()
	case chat.PanelError:
		sb.WriteString(errorStyle.Render(panel.Message))
		return sb.String()
	}

	for i, card := range panel.Cards {
		title := iconLabel(card.Icon) + " " + cardTitleStyle.Render(card.Title)
		meta := card.Size
		if card.Description != "" {
			meta += " · " + card.Description
		}
		block := lipgloss.JoinVertical(lipgloss.Left,
			title,
			cardDescStyle.Width(width).Render(meta),
		)
		if focused && i == selected {
			block = selectedCardStyle.Width(width).Render(block)
		}
		sb.WriteString(block)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderOverlayBody(o chat.Overlay) string {
	switch o.Phase {
	case chat.OverlayLoading:
		return loadingStyle.Render(o.Message)
	case chat.OverlayPDF:
		return fmt.Sprintf("%s\n\n%s\n%s\n\n%s",
			cardTitleStyle.Render(fmt.Sprintf("PDF document (%d bytes)", o.Bytes)),
			"Open it in your PDF viewer:",
			linkStyle.Render(o.EmbedURL),
			helpStyle.Render("Press d to download a local copy."),
		)
	case chat.OverlayError:
		return errorStyle.Render(o.Message) + "\n" + helpStyle.Render(o.Hint)
	case chat.OverlayBinary:
		return noticeStyle.Render(o.Message) + "\n" + helpStyle.Render("Press d to download a local copy.")
	default:
		return o.Content
	}
}

func renderPopup(p *chat.LimitPopup, width int) string {
	if p == nil {
		return ""
	}
	lines := []string{headerStyle.Render(p.Title)}
	lines = append(lines, p.Body...)
	lines = append(lines, p.CallToAction+": "+linkStyle.Render(p.URL))
	w := width - 4
	if w < 20 {
		w = 20
	}
	return popupStyle.Width(w).Render(strings.Join(lines, "\n"))
}
