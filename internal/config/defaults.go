package config

// Linker orders accepted by linker.order.
const (
	OrderDiscovery   = "discovery"
	OrderTopological = "topological"
)

// Resolve defaults.
const (
	DefaultResolveIndexFile     = "index"
	DefaultResolveMaxModuleSize = "4MB"
)

// DefaultResolveExtensions is the probe list for extension-less specifiers.
var DefaultResolveExtensions = []string{".js", ".mjs", ".cjs", ".jsx"}

// Output defaults.
const (
	DefaultOutputFilename = "bundle.js"
	DefaultOutputCompress = false
	DefaultOutputMetafile = ""
	DefaultOutputVerify   = false
)

// Linker defaults.
const (
	DefaultLinkerOrder = OrderDiscovery
)

// Logging defaults.
const (
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "text"
)

// Telemetry defaults.
const (
	DefaultTelemetryOTLPEndpoint    = ""
	DefaultTelemetryOTLPInsecure    = false
	DefaultTelemetryOTLPHeaders     = ""
	DefaultTelemetryTraceVerbose    = false
	DefaultTelemetryMetricsTextfile = ""
)
