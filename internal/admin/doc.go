// Package admin exposes the target pool over a small JSON API and provides
// the matching client used by poolctl.
//
// Routes:
//
//	GET    /v1/status                 pool policy and size
//	GET    /v1/targets                target snapshots
//	POST   /v1/targets                {"address": "...", "weight": 1}
//	DELETE /v1/targets?address=...    remove a target
//	GET    /metrics                   dispatch metrics
package admin
