// Package llm wraps the external text-generation and embedding
// collaborators behind narrow interfaces the orchestrator and index builder
// consume. The concrete implementation talks to Gemini via the genai SDK.
package llm

import "context"

// Generator is the opaque answer-generation capability. Complete returns
// the whole answer synchronously; Stream forwards each produced fragment to
// emit before requesting the next one, stopping when emit returns an error
// or the context is cancelled.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string, emit func(chunk string) error) error
}
