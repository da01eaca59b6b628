package domain

// Document is a single source text loaded into the corpus.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Chunk is a bounded-size excerpt of the corpus used for retrieval.
type Chunk struct {
	Index int
	Text  string
}

// ScoredChunk pairs a chunk with its lexical overlap score for one query.
type ScoredChunk struct {
	Chunk Chunk
	Score int
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Source is a citation attached to a completed model message.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Message is one entry of the conversation.
// A model message's Text only grows while its turn is streaming.
type Message struct {
	ID      string   `json:"id"`
	Role    Role     `json:"role"`
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

// Settings are the per-turn generation settings supplied by the caller.
type Settings struct {
	Model             string
	Temperature       float64
	SystemInstruction string
}

// GenerationRequest is what the prompt assembler hands to the orchestrator.
type GenerationRequest struct {
	Model             string
	Temperature       float64
	SystemInstruction string
	// Context is the raw retrieved context, already embedded in
	// SystemInstruction. Local backends read it directly.
	Context string
	Query   string
}

// Usage is the provider-reported token consumption of a turn.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamChunk is one incremental unit received from a generation stream.
type StreamChunk struct {
	TextDelta string
	Final     bool
	Usage     *Usage
	Sources   []Source
}

// Chunker splits corpus text into retrievable chunks.
type Chunker interface {
	Chunk(text string) []Chunk
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
