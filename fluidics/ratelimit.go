package fluidics

const (
	DefaultRateLimitModulus uint64 = 128
)

// RateLimiter gates diagnostics to one in every modulus calls. It is owned by a single goroutine
type RateLimiter struct {
	count   uint64
	modulus uint64
}

// NewRateLimiter returns a limiter firing on every modulus'th call
func NewRateLimiter(modulus uint64) *RateLimiter {
	if modulus == 0 {
		modulus = DefaultRateLimitModulus
	}
	return &RateLimiter{modulus: modulus}
}

// ShouldEmit counts one call and reports whether this call may emit
func (r *RateLimiter) ShouldEmit() bool {
	r.count++
	return r.count%r.modulus == 0
}
