// Package api provides the HTTP handlers for the service: authentication,
// learner profiles, study sessions, graded reviews, catalogue content,
// archive imports, and community feedback.
//
// Handlers are thin adapters between the HTTP layer and the service layer:
// they decode and validate requests, call one service method, and translate
// the result (or its error, via HandleAPIError) into a JSON response. All
// business rules live in internal/service; all wire concerns live here.
//
// Subpackages:
//   - shared: response/request helpers and context keys used by both the
//     handlers and the middleware.
//   - middleware: trace ID injection and Bearer-token authentication.
package api
