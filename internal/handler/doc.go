// Package handler implements the HTTP entry point of the proxy. Each request
// asks the pool for a target, forwards through that target's reverse proxy
// and reports the outcome back so failing targets get evicted.
package handler
