// Package httpserver wraps http.Server with listen address validation and
// bounded graceful shutdown. Both the proxy and the admin API run on it.
package httpserver
