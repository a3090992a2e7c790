package rag

// Mode selects how the context for a question is assembled.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSelectionOnly
)

func (m Mode) String() string {
	if m == ModeSelectionOnly {
		return "selection_only"
	}
	return "normal"
}

// ContextSource records which branch of the assembly policy produced the
// context handed to the model.
type ContextSource string

const (
	SourceSelectionOnly         ContextSource = "selection_only"
	SourceSelectionAndRetrieval ContextSource = "selection_and_retrieval"
	SourceSelectionFallback     ContextSource = "selection_fallback"
	SourceRetrieval             ContextSource = "retrieval"
	SourceNone                  ContextSource = "none"
)

// Query is one question entering the pipeline.
type Query struct {
	Question       string
	SelectedText   string
	ConversationID string
	Mode           Mode
}

// Hit is a single nearest-neighbour result from the vector store.
type Hit struct {
	Text  string
	Score float32
}

// Point is a stored chunk: its id, vector and text payload.
type Point struct {
	ID     string
	Vector []float32
	Text   string
}

// AskRequest
// Payload of POST /chat.
type AskRequest struct {
	Question       string  `json:"question"`
	SelectedText   *string `json:"selected_text,omitempty"`
	ConversationID *string `json:"conversation_id,omitempty"`
	SelectionOnly  bool    `json:"selection_only"`
}

// AskResponse
// Answer text plus the conversation id it belongs to.
type AskResponse struct {
	Answer         string        `json:"answer"`
	ConversationID string        `json:"conversation_id"`
	ContextSource  ContextSource `json:"context_source"`
}

// IngestRequest is the payload of POST /ingest.
type IngestRequest struct {
	Chunks []string `json:"chunks"`
}

type IngestResponse struct {
	Ingested int `json:"ingested"`
}

// CollectionRequest is the payload of POST /collection. A zero size means
// the configured embedding dimension.
type CollectionRequest struct {
	VectorSize int `json:"vector_size"`
}
