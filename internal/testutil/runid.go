package testutil

// FixedRunIDGenerator returns the same run ID every time, so a scenario
// produces byte-identical snapshots across runs.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// DefaultRunID is returned by a generator built with an empty ID.
const DefaultRunID = "test-run-default"

// NewFixedRunIDGenerator creates a generator returning id, or DefaultRunID
// if id is empty.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
