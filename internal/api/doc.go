// Package api implements the HTTP handlers for the service: authentication,
// module and item management, forking, the library, and study progress.
// Handlers translate between JSON request/response shapes and the service
// layer, and map service errors to HTTP status codes in one place.
package api
