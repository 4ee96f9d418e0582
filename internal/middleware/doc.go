// Package middleware provides HTTP middleware for the API server.
//
// It includes:
//   - Request logging through the logging package, with health checks
//     optionally filtered out
//   - Prometheus request metrics labelled by route template
//   - gzip compression of JSON responses
package middleware
