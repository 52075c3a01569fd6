// Package httputil provides the response helpers shared by all handlers:
// plain text for the public signup surface, JSON for health.
package httputil
