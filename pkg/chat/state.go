package chat

import (
	"github.com/go-go-golems/docchat/pkg/api"
)

// Message is one rendered chat turn.
type Message struct {
	Text      string
	IsUser    bool
	Timestamp string
}

// Entry is a transcript row: either a message or the transient loading
// placeholder.
type Entry struct {
	Message
	Loading bool
}

type Indicator string

const (
	IndicatorUnknown   Indicator = "unknown"
	IndicatorConnected Indicator = "connected"
	IndicatorError     Indicator = "error"
)

const (
	StatusConnecting       = "Connecting..."
	StatusConnected        = "Connected"
	StatusAPIError         = "API Error"
	StatusConnectionFailed = "Connection Failed"
)

type HealthStatus struct {
	Text      string
	Indicator Indicator
}

// LimitPopup is the modal shown once the interaction quota is used up.
type LimitPopup struct {
	Title        string
	Body         []string
	CallToAction string
	URL          string
}

type PanelPhase int

const (
	PanelIdle PanelPhase = iota
	PanelLoading
	PanelReady
	PanelEmpty
	PanelError
)

func (p PanelPhase) String() string {
	switch p {
	case PanelIdle:
		return "idle"
	case PanelLoading:
		return "loading"
	case PanelReady:
		return "ready"
	case PanelEmpty:
		return "empty"
	case PanelError:
		return "error"
	default:
		return "unknown"
	}
}

type Icon string

const (
	IconPDF   Icon = "file-pdf"
	IconExcel Icon = "file-excel"
	IconWord  Icon = "file-word"
	IconFile  Icon = "file-alt"
)

// IconFor picks the card icon for a document type, falling back to the
// generic file icon.
func IconFor(t api.DocumentType) Icon {
	switch t.Kind() {
	case api.DocumentTypePDF:
		return IconPDF
	case api.DocumentTypeExcel:
		return IconExcel
	case api.DocumentTypeWord:
		return IconWord
	default:
		return IconFile
	}
}

type DocumentCard struct {
	api.Document
	Icon        Icon
	DownloadURL string
}

type DocumentsPanel struct {
	Phase   PanelPhase
	Cards   []DocumentCard
	Message string
}

type OverlayPhase int

const (
	OverlayLoading OverlayPhase = iota
	OverlayText
	OverlayPDF
	OverlayError
	OverlayBinary
)

// Overlay is the document preview modal. Content holds the printable text for
// OverlayText; EmbedURL is the viewer source for OverlayPDF. OverlayBinary
// carries only a Message and Hint, never the raw bytes.
type Overlay struct {
	Open       bool
	DocumentID string
	Filename   string
	Type       api.DocumentType
	Title      string
	Phase      OverlayPhase
	Message    string
	Content    string
	EmbedURL   string
	Bytes      int
	Hint       string
}

// State is everything a UI binding needs to render the session.
type State struct {
	Transcript    []Entry
	Input         string
	InputDisabled bool
	LimitPopup    *LimitPopup
	Status        HealthStatus
	Documents     DocumentsPanel
	Overlay       Overlay
}

// Loading reports whether the loading placeholder is in the transcript.
func (s State) Loading() bool {
	return s.loadingIndex() >= 0
}

func (s State) loadingIndex() int {
	for i := range s.Transcript {
		if s.Transcript[i].Loading {
			return i
		}
	}
	return -1
}

// Messages returns the transcript without the loading placeholder.
func (s State) Messages() []Message {
	ret := make([]Message, 0, len(s.Transcript))
	for _, e := range s.Transcript {
		if !e.Loading {
			ret = append(ret, e.Message)
		}
	}
	return ret
}

func (s *State) clone() State {
	ret := *s
	ret.Transcript = append([]Entry(nil), s.Transcript...)
	ret.Documents.Cards = append([]DocumentCard(nil), s.Documents.Cards...)
	if s.LimitPopup != nil {
		p := *s.LimitPopup
		p.Body = append([]string(nil), s.LimitPopup.Body...)
		ret.LimitPopup = &p
	}
	return ret
}
