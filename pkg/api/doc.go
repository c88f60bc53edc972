// Package api defines the public wire types of the QR menu platform:
// the JSON envelope returned by every auth endpoint, the error taxonomy
// with its stable error codes, and helpers for slugs and input validation.
//
// The types here are transport-agnostic. Mapping error codes to HTTP
// status codes happens in pkg/transport.
package api
