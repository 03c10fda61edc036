/*
Package resilience guards calls to the remote storage API with a circuit
breaker.

# States

	Closed --[ReadyToTrip]-> Open --[Cooldown]-> HalfOpen --[Probes successes]-> Closed
	                                               |
	                                           [failure]
	                                               v
	                                             Open

While open, calls fail with ErrOpen without reaching the server. In the
half-open state at most Probes calls are let through; one failure reopens
the breaker.

# Usage

	breaker := resilience.New("remote-storage", resilience.Settings{
		Probes:   2,
		Cooldown: 15 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("breaker state changed", zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})

	node, err := resilience.Run(breaker, func() ([]byte, error) {
		return fetch(ctx, key)
	})
*/
package resilience
