package obs

import (
	"context"
	"log"
	"time"
)

// Time logs the duration and outcome of a named operation when the
// returned func runs. Use as: defer obs.Time(ctx, "op")(&err).
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("op=%s dur=%dms err=%v", name, dur.Milliseconds(), *errp)
			return
		}

		if err := ctx.Err(); err != nil {
			log.Printf("op=%s dur=%dms ctx_err=%v", name, dur.Milliseconds(), err)
			return
		}

		log.Printf("op=%s dur=%dms", name, dur.Milliseconds())
	}
}
