// Package handlers provides the HTTP API over a loaded library.
//
// Endpoints:
//   - GET /healthz, /livez, /version: health and build information
//   - GET /api/resolve?ids=: resolve a chat message's Media IDs
//   - GET /api/memories/path?date=: find the file saved for a memory
//   - GET /api/display?path=: render a media file as a JPEG
//   - GET /api/integrity: linked and missing reference counts
//   - POST /api/reload: re-read the export and rebuild the index
//   - POST /api/repair, /api/revert: start a background job (409 when one is running)
//   - GET, DELETE /api/jobs/current: inspect or cancel the current job
//   - GET /metrics: Prometheus metrics, when enabled
package handlers
