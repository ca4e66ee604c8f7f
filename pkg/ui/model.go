package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/rs/zerolog/log"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusDocuments
)

// stateChangedMsg is delivered whenever the controller signals an update.
type stateChangedMsg struct{}

type noticeMsg string

// Model is the bubbletea binding of a chat.Controller. It renders snapshots
// and turns keys and clicks into controller operations. Operations that hit
// the network run as commands so the event loop never blocks.
type Model struct {
	ctx         context.Context
	ctrl        *chat.Controller
	downloadDir string

	state chat.State

	input      textinput.Model
	transcript viewport.Model
	preview    viewport.Model
	spinner    spinner.Model
	md         *markdown

	focus      focusArea
	selected   int
	docsOffset int
	previewKey string
	notice     string

	width  int
	height int
}

type ModelOption func(*Model)

// WithDownloadDir sets where the download key saves documents.
func WithDownloadDir(dir string) ModelOption {
	return func(m *Model) {
		if dir != "" {
			m.downloadDir = dir
		}
	}
}

func NewModel(ctx context.Context, ctrl *chat.Controller, options ...ModelOption) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a question about the documents..."
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)

	m := Model{
		ctx:         ctx,
		ctrl:        ctrl,
		downloadDir: ".",
		state:       ctrl.Snapshot(),
		input:       ti,
		transcript:  viewport.New(80, 20),
		preview:     viewport.New(60, 20),
		spinner:     sp,
		md:          newMarkdown(),
		width:       80,
		height:      24,
	}
	for _, opt := range options {
		opt(&m)
	}
	m.layout()
	return m
}

func waitForUpdate(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		_, ok := <-ch
		if !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForUpdate(m.ctrl.Updates()))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case stateChangedMsg:
		m.apply(m.ctrl.Snapshot())
		return m, waitForUpdate(m.ctrl.Updates())

	case noticeMsg:
		m.notice = string(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.Loading() {
			m.refreshTranscript()
		}
		return m, cmd

	case tea.MouseMsg:
		if m.state.Overlay.Open {
			if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && !m.insideModal(msg.X, msg.Y) {
				m.ctrl.ClickOverlayBackground()
				return m, nil
			}
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.state.Overlay.Open {
		switch key {
		case "esc", "q":
			m.ctrl.CloseOverlay()
			return m, nil
		case "d":
			return m, m.downloadCmd(m.state.Overlay.Filename)
		}
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	switch key {
	case "tab", "shift+tab":
		m.toggleFocus()
		return m, nil
	case "ctrl+y":
		return m, m.copyCmd()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	if m.focus == focusDocuments {
		return m.handleDocumentsKey(key)
	}

	if m.state.InputDisabled {
		return m, nil
	}
	if key == "enter" {
		// the field clears at once so a repeated enter submits nothing
		if strings.TrimSpace(m.input.Value()) == "" {
			return m, nil
		}
		m.ctrl.SetInput(m.input.Value())
		m.input.SetValue("")
		m.state.Input = ""
		return m, m.askCmd()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.state.Input {
		m.state.Input = m.input.Value()
		m.ctrl.SetInput(m.input.Value())
	}
	return m, cmd
}

func (m Model) handleDocumentsKey(key string) (tea.Model, tea.Cmd) {
	cards := m.state.Documents.Cards
	switch key {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(cards)-1 {
			m.selected++
		}
	case "esc":
		m.toggleFocus()
	case "enter", "p":
		if card, ok := m.selectedCard(); ok {
			return m, m.viewCmd(card)
		}
	case "d":
		if card, ok := m.selectedCard(); ok {
			return m, m.downloadCmd(card.Filename)
		}
	}
	m.scrollDocuments()
	return m, nil
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusDocuments
		m.input.Blur()
		return
	}
	m.focus = focusInput
	if !m.state.InputDisabled {
		m.input.Focus()
	}
}

func (m Model) selectedCard() (chat.DocumentCard, bool) {
	cards := m.state.Documents.Cards
	if m.selected < 0 || m.selected >= len(cards) {
		return chat.DocumentCard{}, false
	}
	return cards[m.selected], true
}

func (m Model) askCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		ctrl.AskQuestion(ctx)
		return nil
	}
}

func (m Model) viewCmd(card chat.DocumentCard) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		ctrl.ViewDocument(ctx, card.ID, card.Filename, card.Type, card.Title)
		return nil
	}
}

func (m Model) downloadCmd(filename string) tea.Cmd {
	if filename == "" {
		return nil
	}
	ctrl, ctx, dir := m.ctrl, m.ctx, m.downloadDir
	return func() tea.Msg {
		path, err := ctrl.DownloadDocument(ctx, filename, dir)
		if err != nil {
			log.Warn().Err(err).Str("filename", filename).Msg("download failed")
			return noticeMsg("Download failed: " + err.Error())
		}
		return noticeMsg("Saved " + path)
	}
}

func (m Model) copyCmd() tea.Cmd {
	answer := lastAnswer(m.state)
	if answer == "" {
		return nil
	}
	return func() tea.Msg {
		if err := clipboard.WriteAll(answer); err != nil {
			return noticeMsg("Copy failed: " + err.Error())
		}
		return noticeMsg("Copied last answer to clipboard")
	}
}

func lastAnswer(s chat.State) string {
	msgs := s.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsUser {
			return msgs[i].Text
		}
	}
	return ""
}

func (m *Model) apply(s chat.State) {
	m.state = s
	if s.Input != m.input.Value() {
		m.input.SetValue(s.Input)
		m.input.CursorEnd()
	}
	if s.InputDisabled {
		m.input.Blur()
		m.input.Placeholder = "Chat disabled"
	}
	if m.selected >= len(s.Documents.Cards) {
		m.selected = len(s.Documents.Cards) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}

	if s.Overlay.Open {
		key := fmt.Sprintf("%s/%d", s.Overlay.DocumentID, s.Overlay.Phase)
		m.preview.SetContent(renderOverlayBody(s.Overlay))
		if key != m.previewKey {
			m.preview.GotoTop()
			m.previewKey = key
		}
	} else {
		m.previewKey = ""
	}

	m.layout()
}

// layout sizes the panes for the current window and re-renders the transcript.
func (m *Model) layout() {
	popupHeight := 0
	if p := renderPopup(m.state.LimitPopup, m.width); p != "" {
		popupHeight = lipgloss.Height(p)
	}

	bodyHeight := m.height - 3 - popupHeight - 2
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.transcript.Width = m.transcriptWidth()
	m.transcript.Height = bodyHeight
	m.input.Width = m.width - 4

	mw, mh := m.modalSize()
	m.preview.Width = mw - 8
	m.preview.Height = mh - 7
	if m.preview.Height < 1 {
		m.preview.Height = 1
	}

	m.refreshTranscript()
	m.scrollDocuments()
}

func (m Model) transcriptWidth() int {
	w := m.width - (documentsWidth + 4) - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) refreshTranscript() {
	atBottom := m.transcript.AtBottom()
	m.transcript.SetContent(renderTranscript(m.state, m.transcript.Width, m.md, m.spinner.View()))
	if atBottom || m.state.Loading() {
		m.transcript.GotoBottom()
	}
}

// cardsPerPage is how many cards fit in the documents pane; each card takes
// a title line, a meta line and a gap.
func (m Model) cardsPerPage() int {
	n := (m.transcript.Height - 2) / 3
	if n < 1 {
		n = 1
	}
	return n
}

func (m *Model) scrollDocuments() {
	per := m.cardsPerPage()
	if m.selected < m.docsOffset {
		m.docsOffset = m.selected
	}
	if m.selected >= m.docsOffset+per {
		m.docsOffset = m.selected - per + 1
	}
	if m.docsOffset < 0 {
		m.docsOffset = 0
	}
}

func (m Model) modalSize() (int, int) {
	w := m.width - 8
	if w > 100 {
		w = 100
	}
	if w < 30 {
		w = 30
	}
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return w, h
}

func (m Model) renderModal() string {
	mw, mh := m.modalSize()
	o := m.state.Overlay
	help := helpStyle.Render("esc close · d download · ↑/↓ scroll")
	body := lipgloss.JoinVertical(lipgloss.Left,
		modalTitleStyle.Render(o.Title),
		"",
		m.preview.View(),
		"",
		help,
	)
	return modalStyle.Width(mw - 2).Height(mh - 2).Render(body)
}

// insideModal reports whether a click at x,y lands on the centered modal.
func (m Model) insideModal(x, y int) bool {
	modal := m.renderModal()
	w, h := lipgloss.Width(modal), lipgloss.Height(modal)
	left := (m.width - w) / 2
	top := (m.height - h) / 2
	return x >= left && x < left+w && y >= top && y < top+h
}

func (m Model) View() string {
	if m.state.Overlay.Open {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderModal())
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render("Document Chat"),
		"  ",
		statusLine(m.state.Status),
	)

	tp := transcriptPane
	dp := documentsPane
	if m.focus == focusDocuments {
		dp = dp.BorderForeground(focusedBorder)
	} else {
		tp = tp.BorderForeground(focusedBorder)
	}

	panel := m.state.Documents
	if len(panel.Cards) > 0 {
		end := m.docsOffset + m.cardsPerPage()
		if end > len(panel.Cards) {
			end = len(panel.Cards)
		}
		panel.Cards = panel.Cards[m.docsOffset:end]
	}
	docs := renderDocuments(panel, m.selected-m.docsOffset, m.focus == focusDocuments, documentsWidth)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		tp.Width(m.transcript.Width+2).Render(m.transcript.View()),
		dp.Width(documentsWidth+2).Height(m.transcript.Height).MaxHeight(m.transcript.Height+2).Render(docs),
	)

	parts := []string{header, body}
	if popup := renderPopup(m.state.LimitPopup, m.width); popup != "" {
		parts = append(parts, popup)
	}
	if m.state.InputDisabled {
		parts = append(parts, disabledStyle.Render("Input disabled: interaction limit reached"))
	} else {
		parts = append(parts, m.input.View())
	}
	parts = append(parts, m.helpLine())
	return strings.Join(parts, "\n")
}

func (m Model) helpLine() string {
	help := "enter send · tab documents · ctrl+y copy answer · pgup/pgdn scroll · ctrl+c quit"
	if m.focus == focusDocuments {
		help = "↑/↓ select · enter preview · d download · tab chat · ctrl+c quit"
	}
	line := helpStyle.Render(help)
	if m.notice != "" {
		line += "  " + noticeStyle.Render(m.notice)
	}
	return line
}
