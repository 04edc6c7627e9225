package events

// ContentType enumerates the document families §3 requires type-specific
// counters for.
type ContentType string

const (
	ContentTypeWord         ContentType = "word"
	ContentTypeSheet        ContentType = "sheet"
	ContentTypePresentation ContentType = "presentation"
	ContentTypeTask         ContentType = "task"
)

// DocumentData is the normalized shape of a provider document. The
// type-specific counter fields are only populated for the matching
// ContentType; the document factory (pkg/docfactory) reads them without
// needing a further type switch on a Go interface, mirroring the
// originating system's WordDocumentData / SheetDocumentData /
// PresentationDocumentData subtypes folded into one record.
type DocumentData struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Content           string            `json:"content"`
	ContentType       ContentType       `json:"content_type"`
	Provider          string            `json:"provider,omitempty"`
	ProviderDocumentID string           `json:"provider_document_id,omitempty"`
	OwnerEmail        string            `json:"owner_email"`
	Permissions       []string          `json:"permissions,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	Metadata          map[string]any    `json:"metadata,omitempty"`

	// word
	WordCount int    `json:"word_count,omitempty"`
	PageCount int    `json:"page_count,omitempty"`
	Language  string `json:"language,omitempty"`
	Template  string `json:"template,omitempty"`

	// sheet
	RowCount    int `json:"row_count,omitempty"`
	ColumnCount int `json:"column_count,omitempty"`
	SheetCount  int `json:"sheet_count,omitempty"`
	Formulas    int `json:"formulas,omitempty"`

	// presentation
	SlideCount        int      `json:"slide_count,omitempty"`
	Theme             string   `json:"theme,omitempty"`
	TransitionEffects []string `json:"transition_effects,omitempty"`
}

// DocumentEvent is the envelope specialized with a DocumentData payload.
type DocumentEvent struct {
	Envelope
	Document DocumentData `json:"document"`
}
