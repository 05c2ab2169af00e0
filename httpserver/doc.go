// Package httpserver implements the HTTP API of the storage provisioning
// service.
//
// The service manages per-user and per-group storage allocations on a shared
// multi-tenant host. All storage semantics live in the storage package
// behind the interfaces.Storage contract; this package translates between
// HTTP and that contract.
//
// # API Endpoints
//
// All API routes live under /api/v1 and require the X-API-Key header:
//
//	GET    /api/v1/users/{name}    quota and usage for one user
//	POST   /api/v1/users           provision user storage {"name","quota"}
//	DELETE /api/v1/users/{name}    remove user storage recursively
//	GET    /api/v1/groups/{name}   quota and usage for one group
//	POST   /api/v1/groups          provision group storage {"name","quota"}
//	DELETE /api/v1/groups/{name}   remove group storage recursively
//	GET    /api/v1/storages        snapshot listing of all storages
//
// Storage errors map onto HTTP status codes: forbidden characters in a name
// yield 400, a missing target 404, an operating-system permission denial
// 403, and everything else an opaque 500 whose cause is logged server-side.
//
// # Operational Endpoints
//
// Health and diagnostic endpoints are served outside API-key auth:
// /livez, /readyz, /drain, /undrain, and optionally pprof under /debug.
// Draining flips the readiness bit so load balancers stop routing new
// requests ahead of a shutdown. Prometheus metrics are served from a
// dedicated listener configured separately.
package httpserver
