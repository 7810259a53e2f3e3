// Package api exposes the HTTP surface of the capsule service: request
// decoding and validation, handlers for the auth, user, capsule, and
// notification endpoints, and the mapping from internal errors to safe
// client-facing responses.
package api
