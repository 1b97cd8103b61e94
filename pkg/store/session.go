package store

// Candidate represents a document proposed as relevant to a query, before
// final rendering. Content is hydrated lazily by the context assembler.
type Candidate struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	DocType    string  `json:"doc_type"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"` // "similarity" | "lexical"
}

const (
	SourceSimilarity = "similarity"
	SourceLexical    = "lexical"
)

// Session is the in-memory runtime state of a chat session between turns.
// The durable message log lives in the database; this only carries what the
// last turn retrieved, for diagnostics and follow-up handling.
type Session struct {
	ID             string      `json:"id"`
	LastQuery      string      `json:"last_query"`
	LastCandidates []Candidate `json:"last_candidates"`
}
