package api

import "time"

type requestOptions struct {
	noCache bool
	ttl     time.Duration
	timeout time.Duration
	headers map[string]string
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

// WithoutCache makes a GET skip the response cache in both directions: it is
// neither answered from nor written to the cache. Concurrent uncached GETs
// with the same endpoint and headers are still coalesced, but never with
// cached GETs.
func WithoutCache() RequestOption {
	return func(o *requestOptions) {
		o.noCache = true
	}
}

// WithTTL overrides the client's default cache lifetime for this GET.
func WithTTL(ttl time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.ttl = ttl
	}
}

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.timeout = timeout
	}
}

// WithHeader adds one header to the request, e.g. a wallet payment header.
// The cache is keyed by endpoint alone, so a GET whose response depends on
// the header should also use WithoutCache.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithHeaders adds several headers to the request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) {
		for k, v := range headers {
			WithHeader(k, v)(o)
		}
	}
}
