// Package client provides the shared outbound HTTP client.
//
// Every external HTTP integration (GitHub search, breach lookups) goes
// through a Client, which layers:
//   - go-resty for request building and JSON decoding
//   - hashicorp/go-retryablehttp as the transport, retrying connection
//     errors, 429 and 5xx responses with exponential backoff
//   - a token bucket rate limiter per upstream
//   - a circuit breaker per upstream
//
// Example Usage:
//
//	c := client.New(client.Options{Name: "github", BaseURL: "https://api.github.com"})
//	var out searchResponse
//	_, err := c.Do(ctx, "search", func(r *resty.Request) (*resty.Response, error) {
//		return r.SetResult(&out).Get("/search/repositories")
//	})
package client
