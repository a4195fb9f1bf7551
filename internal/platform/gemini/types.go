package gemini

// Wire types for the batch JSONL artifacts. Request lines are what we
// upload; result lines are what the provider writes into the output file.
// These are decoded independently of the SDK's in-memory types because the
// artifact format is plain JSON per line.

// requestLine is one uploaded batch request keyed by the caller's customId.
type requestLine struct {
	Key     string      `json:"key"`
	Request requestBody `json:"request"`
}

type requestBody struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

// resultLine is one line of the output artifact: the echoed key plus either
// a generation response or a per-item error.
type resultLine struct {
	Key      string          `json:"key"`
	Response *resultResponse `json:"response,omitempty"`
	Error    *resultError    `json:"error,omitempty"`
}

type resultResponse struct {
	Candidates []resultCandidate `json:"candidates"`
}

type resultCandidate struct {
	Content requestContent `json:"content"`
}

type resultError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}
