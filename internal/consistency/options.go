package consistency

import (
	"time"

	"github.com/rs/zerolog"
	"muabook/internal/logger"
)

// PassOptions configures a single pass over a snapshot.
type PassOptions struct {
	// Now is the pass clock. Zero means time.Now.
	Now time.Time
	// Logger receives repair logs. Nil means the component logger.
	Logger *zerolog.Logger
}

func (o PassOptions) resolve(component string) (time.Time, zerolog.Logger) {
	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}
	if o.Logger != nil {
		return now, o.Logger.With().Str("pass", component).Logger()
	}
	return now, logger.WithComponent(component)
}
