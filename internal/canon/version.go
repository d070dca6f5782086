package canon

// Version constants for the canon body and engine.
const (
	// CanonVersion is the canon body version cited in verdicts.
	// In v0.2 ERROR findings block realization under strict mode.
	CanonVersion = "0.2"

	// EngineVersion is the canon engine version.
	EngineVersion = "0.1.0"
)
