package classify

import "context"

// FallbackCategory is assumed whenever the classifier is unavailable or
// fails; classification is advisory and must never block registration.
const FallbackCategory = "OTHER"

// Result is the classifier's opinion about a document.
type Result struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Client classifies document bytes into a compliance category.
type Client interface {
	Classify(ctx context.Context, data []byte, fileName, mimeType string) (Result, error)
}

// Fallback returns the result to use when classification failed.
func Fallback() Result {
	return Result{Category: FallbackCategory, Confidence: 0}
}

// FallbackClient answers every request with the fallback result. It stands
// in when no classifier endpoint is configured.
type FallbackClient struct{}

func (FallbackClient) Classify(ctx context.Context, data []byte, fileName, mimeType string) (Result, error) {
	return Fallback(), nil
}

var _ Client = FallbackClient{}
