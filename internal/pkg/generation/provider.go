package generation

import "context"

// Request describes one render the user asked for.
type Request struct {
	UserID uint   `json:"user_id"`
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

// Result is the artifact produced by the external provider.
type Result struct {
	Data        []byte
	ContentType string
}

// Provider is the external image-generation collaborator. Implementations
// make network calls; the coordinator only ever invokes them after the
// credit deduction has committed, never inside a store transaction.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
