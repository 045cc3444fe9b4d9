/*
Package resilience provides a circuit breaker for outbound calls.

AI providers, GitHub search and the breach lookup service are remote and
can fail for long stretches. Calls to each go through a Breaker so a dead
upstream fails fast instead of tying up request goroutines until timeout.

# States

- Closed: requests pass through; failures are counted
- Open: requests fail immediately with ErrCircuitOpen
- Half-Open: a limited number of probe requests decide the next state

	Closed --[trip]--> Open --[timeout]--> Half-Open --[successes]--> Closed
	                                           |
	                                       [failure]
	                                           v
	                                          Open

# Usage

	breaker := resilience.New("github", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: resilience.LogStateChange(logger),
	})

	repos, err := resilience.Call(breaker, func() ([]Repo, error) {
		return client.Search(ctx, q)
	})
*/
package resilience
