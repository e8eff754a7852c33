package util

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Trace 记录耗时，用法：defer util.Trace("name")()
func Trace(name string) func() {
	start := time.Now()
	return func() {
		log.Debug().Str("trace", name).Dur("elapsed", time.Since(start)).Msg("done")
	}
}
