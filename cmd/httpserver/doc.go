// Package main (cmd/httpserver) implements the storage provisioning server.
//
// The server provides HTTP endpoints for provisioning, inspecting and
// removing per-user and per-group storage on a shared multi-tenant host. It
// is consumed by an upstream service that manages tenants without knowing
// which storage technology backs them; the backend (plain POSIX directories
// or ZFS datasets with native quotas) is selected once at startup.
//
// Configuration is handled through command-line flags with environment
// variable fallbacks: STORAGE_BASE_PATH, STORAGE_UID, STORAGE_GID,
// STORAGE_BACKEND and API_KEY, plus flags for the HTTP and metrics listen
// addresses, logging and performance tuning. Invalid configuration prevents
// startup.
//
// The server implements graceful shutdown on receiving termination signals
// (SIGINT/SIGTERM) and supports health checks, drain/undrain, Prometheus
// metrics on a dedicated listener, and optional profiling endpoints.
//
// Example usage with the posix backend:
//
//	storage-server --base-path=/srv/storage \
//	    --backend=posix \
//	    --uid=1000 --gid=1000 \
//	    --api-key=0123456789abcdef \
//	    --listen-addr=0.0.0.0:8080
//
// Example usage with the zfs backend:
//
//	STORAGE_BACKEND=zfs STORAGE_BASE_PATH=tank/storage \
//	    API_KEY=0123456789abcdef storage-server --listen-addr=0.0.0.0:8080
package main
