package domain

import "fmt"

// ValidationError marks a malformed or unsatisfiable request. It is a
// client-facing error; retrying the same request will not help.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ProviderError reports a mapping provider failure: a non-success status
// from the provider or a failed network call. Callers may retry with
// backoff; the optimizer itself does not.
type ProviderError struct {
	Status string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mapping provider: %s: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("mapping provider: %s", e.Status)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CacheError wraps a route cache read or write failure. Cache errors are
// never fatal to optimization; the optimizer logs them and carries on.
type CacheError struct {
	Op  string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("route cache %s: %v", e.Op, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
