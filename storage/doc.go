// Package storage provides per-tenant storage management with pluggable
// backends.
//
// The package implements the interfaces.Storage contract over two backend
// technologies selected at startup by the New factory:
//
//   - posix: tenants are plain directories under a base path. Created with
//     mode 0770 and chowned to the configured uid/gid; removed recursively;
//     measured by batching every tenant into a single `du -sb` invocation
//     whose parsed result is cached for 60 seconds. Quotas are accepted but
//     have no enforcement effect.
//
//   - zfs: tenants are child datasets of a base dataset. Created with
//     `zfs create`, destroyed recursively with `zfs destroy -R` (including
//     snapshots and clones), quota-limited with the native `quota` property,
//     and listed with `zfs list -Hpro name,quota,used`. Full-subtree usage
//     scans are serialized through a single-permit gate.
//
// # Path Validation
//
// Tenant names are used as filesystem path segments and as external command
// arguments. Every operation validates every path segment against an
// allow-listed character set (ASCII letters and digits, dash, underscore,
// common accented Latin letters) before any backend work, so traversal
// sequences and shell metacharacters never reach the filesystem layer.
//
// # Concurrency
//
// A single backend instance is shared by all request contexts. The TTL cache
// and the usage gate are owned by the backend instance, not process-global,
// so independent instances (for example in tests) do not interfere. The
// cache tolerates duplicate recomputation when concurrent callers miss on
// the same key; the zfs gate instead bounds in-flight subtree scans to one.
// Operations on the same tenant path are not serialized against each other:
// a delete racing a get yields a not-found outcome on one side rather than a
// guaranteed ordering.
//
// # External Commands
//
// All external processes run through the cmdutil package with a bounded
// lifetime; a command exceeding its timeout is killed and the operation
// fails rather than blocking indefinitely. Failures are logged once at the
// point of detection with full command context, then propagated wrapped in
// the interfaces sentinel errors for the HTTP layer to translate.
package storage
