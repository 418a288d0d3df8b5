// Package backend implements reverse proxy forwarding to upstream targets.
// A Registry keeps one reverse proxy per pool address, and Forward reports
// whether the upstream answered or the transport failed.
package backend
