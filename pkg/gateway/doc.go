// Package gateway serves the asset store over HTTP: one query endpoint
// that maps request parameters onto asset updates, plus separate health,
// readiness and metrics endpoints.
package gateway
