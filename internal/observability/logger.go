package observability

import "github.com/rs/zerolog"

// Component scopes a logger to one lifecycle component.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
