// Package server exposes user records over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handlers
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
//	GET   /api/users             → list usernames with a record
//	GET   /api/users/{username}  → fetch (or create) the user's record
//	PATCH /api/users/{username}  → shallow-merge a JSON object into the record, 204 on completion
//	DELETE /api/users/{username} → queue removal of the record, 204 on completion
//	GET   /health                → liveness and update queue depth
//
// PATCH waits until the serialized update queue has applied the patch. A patch for a
// user without a record is dropped, matching the store's semantics.
package server
