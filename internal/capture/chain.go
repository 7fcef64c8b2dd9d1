package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// attempt is one strategy in a fallback chain.
type attempt struct {
	name string
	run  func(ctx context.Context) error
	// skip, when it returns true, drops the attempt without recording an
	// error.
	skip func(ctx context.Context) bool
}

// runChain runs attempts in order until one succeeds. Failures are logged
// and collected; the joined failures are returned when nothing succeeded.
// A nil return means some attempt succeeded.
func runChain(ctx context.Context, log *zerolog.Logger, attempts []attempt) error {
	var errs []error
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if a.skip != nil && a.skip(ctx) {
			log.Debug().Str("attempt", a.name).Msg("Skipping unavailable strategy")
			continue
		}
		err := a.run(ctx)
		if err == nil {
			log.Debug().Str("attempt", a.name).Msg("Capture succeeded")
			return nil
		}
		log.Warn().Str("attempt", a.name).Err(err).Msg("Capture attempt failed")
		errs = append(errs, fmt.Errorf("%s: %w", a.name, err))
	}
	if len(errs) == 0 {
		return errors.New("no strategy available")
	}
	return errors.Join(errs...)
}
