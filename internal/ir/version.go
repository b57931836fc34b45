package ir

// Version constants for the IR and tool.
const (
	// IRVersion is the identity schema version; it matches the domain suffix.
	IRVersion = "1"

	// ToolVersion is the qwire release.
	ToolVersion = "0.1.0"
)
