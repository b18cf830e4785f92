// Package httputil provides the JSON response and request helpers every
// handler uses, so status codes and error envelopes stay uniform across the
// API.
package httputil
