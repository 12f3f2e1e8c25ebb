package circuitbreaker

import (
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

// CreateCircuitBreaker s'ouvre après au moins 3 requêtes dont 60% en échec
func CreateCircuitBreaker[T any](name string) *gobreaker.CircuitBreaker[T] {
	var st gobreaker.Settings
	st.Name = name
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("⚡ Circuit breaker")
	}

	return gobreaker.NewCircuitBreaker[T](st)
}
