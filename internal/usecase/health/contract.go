package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SchemaChecker reports the loaded schema entry types.
type SchemaChecker interface {
	Types() []string
}
