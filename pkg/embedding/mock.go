package embedding

import "context"

// Mock is a deterministic offline Provider for tests and dry runs. Vectors
// are derived from the text's bytes, so equal texts embed identically.
type Mock struct {
	dims int
}

// NewMock creates a mock provider producing vectors of the given length.
func NewMock(dims int) *Mock {
	return &Mock{dims: dims}
}

func (m *Mock) Model() string   { return "mock" }
func (m *Mock) Dimensions() int { return m.dims }

func (m *Mock) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, m.dims)
	for i, r := range text {
		if i >= m.dims {
			break
		}
		vec[i] = float32(r) / 1000.0
	}
	return vec, nil
}

func (m *Mock) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = m.Embed(ctx, t)
	}
	return out, nil
}
