package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configure le logger global zerolog (console en dev, JSON sinon)
func Setup(env, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "smartshop").Logger()
	}
	// log.Ctx(ctx) hors requête retombe sur le logger global
	zerolog.DefaultContextLogger = &log.Logger
}
