package mode

// Mode is the text matching strategy.
type Mode string

// Search mode constants.
const (
	// FTS tokenizes and stems the query against the weighted index.
	FTS Mode = "fts"
	// Substring matches case-insensitive "contains" on the entry name.
	Substring Mode = "substring"
	// Exact matches case-sensitive equality on the entry name.
	Exact Mode = "exact"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == FTS || m == Substring || m == Exact
}
