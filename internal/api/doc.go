// Package api hosts the HTTP handlers that front the courseware REST API.
//
// Handler coordinates request validation, localisation, and response shaping
// while delegating persistence to the storage.Repository injected at
// construction time. The package does not reach for globals or singletons and
// expects callers to supply fully configured dependencies.
//
// Handlers assume upstream middleware from internal/server has already
// enforced rate limiting, metrics, and logging concerns. New routes should
// preserve that contract by leaning on the middleware guarantees established
// in the server stack.
package api
