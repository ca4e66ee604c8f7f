package api

// CustomerInfo is the payload of /api/token/info. Unknown tokens yield empty
// fields rather than an error.
type CustomerInfo struct {
	CustomerName string `json:"customer_name"`
	Email        string `json:"email"`
}

type InteractionCount struct {
	Count int `json:"count"`
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

type DocumentType string

const (
	DocumentTypePDF   DocumentType = "pdf"
	DocumentTypeExcel DocumentType = "excel"
	DocumentTypeWord  DocumentType = "word"
	DocumentTypeOther DocumentType = "other"
)

// Kind folds the wire value into one of the four known types. The backend
// also reports "text" and "unknown", which both count as other.
func (t DocumentType) Kind() DocumentType {
	switch t {
	case DocumentTypePDF, DocumentTypeExcel, DocumentTypeWord:
		return t
	default:
		return DocumentTypeOther
	}
}

// Document describes one knowledge-base file as listed by /api/documents.
type Document struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	Type        DocumentType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Size        string       `json:"size"`
}

type DocumentList struct {
	Documents []Document `json:"documents"`
}
