package common

// PackageName identifies this service in metrics and logs.
const PackageName = "storage_provisioning_backend"

// Version is set at build time via -ldflags.
var Version = "dev"
