// Package resilience groups the fault tolerance helpers used around outbound calls
// and local store writes.
//
// The subpackages provide:
//   - circuitbreaker: gobreaker wrappers with per-dependency profiles (news API, feeds,
//     content extraction, key/value store)
//   - retry: exponential backoff with jitter and pluggable error classification
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.NewsAPIConfig())
//	err := retry.WithBackoff(ctx, retry.NewsAPIConfig(), func() error {
//	    _, err := cb.Execute(func() (interface{}, error) {
//	        return nil, callUpstream(ctx)
//	    })
//	    return err
//	})
package resilience
