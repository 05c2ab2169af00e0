// Package interfaces defines the core contract and types for the tenant
// storage provisioning system, separating interface definitions from
// implementations.
//
// # Storage Interface
//
// Storage: Lifecycle management for per-tenant directories or datasets under
// a shared base path. Four operations are exposed to the HTTP layer:
// CreateDir, DeleteDir, GetDir and ListDir. Implementations validate every
// path segment before doing backend work, so path traversal or argument
// injection through tenant names is rejected up front.
//
// # Configuration
//
// BackendConfig: The startup configuration surface (base path, owning
// uid/gid, backend selection). Validated once by the storage factory;
// validation failure prevents service start.
//
// # Error Taxonomy
//
// Sentinel errors cover every caller-visible failure class:
//
//   - ErrInvalidPath: forbidden characters in a tenant name (client error)
//   - ErrInvalidConfig: bad startup configuration (fatal)
//   - ErrNotFound: target does not exist
//   - ErrPermissionDenied: operating system denied the operation
//   - ErrProcessFailure / ErrProcessTimeout: external command failures
//   - ErrBackendFailure: catch-all for unexpected backend errors
//
// Callers match them with errors.Is; implementations wrap them with
// additional context via fmt.Errorf and %w.
package interfaces
