// Package middleware provides HTTP middleware for the DICOM viewer.
//
// It includes:
//   - An access log in W3C Extended Log Format that classes each request as
//     a slice stream, an API call, a health check or a static asset
//   - Prometheus request metrics labelled by route template
//
// Both are installed with mux.Router.Use so they see the matched route.
package middleware
