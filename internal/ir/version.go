package ir

// Version constants stamped into recorded traces.
const (
	// TraceVersion is the trace-log schema version.
	TraceVersion = "1"

	// EngineVersion is the weft engine version.
	EngineVersion = "0.1.0"
)
