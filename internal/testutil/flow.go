package testutil

// DefaultFlowToken is returned by a FixedFlowGenerator built with "".
const DefaultFlowToken = "test-flow-default"

// FixedFlowGenerator returns the same flow token every time.
//
// Every commit made through the CLI is stamped with a flow token; fixing it
// makes stored event logs byte-identical across test runs.
//
// Thread-safety: stateless and safe for concurrent use.
type FixedFlowGenerator struct {
	token string
}

// NewFixedFlowGenerator creates a generator for token, or for
// DefaultFlowToken if token is empty.
func NewFixedFlowGenerator(token string) *FixedFlowGenerator {
	if token == "" {
		token = DefaultFlowToken
	}
	return &FixedFlowGenerator{token: token}
}

// Generate returns the fixed flow token.
func (g *FixedFlowGenerator) Generate() string {
	return g.token
}
