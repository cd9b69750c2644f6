package domain

import "time"

// BackendConfig controls compute backend selection.
type BackendConfig struct {
	// Preference is tried in order; the CPU baseline is appended when missing.
	Preference []BackendKind
	// Workers bounds the threaded backend's pool. Zero means one per CPU.
	Workers int
}

// ClassifierConfig is the decision table used to classify change notifications.
type ClassifierConfig struct {
	// Default applies to attributes without a row. It should stay ClassTopology.
	Default ChangeClass
	// Attributes maps attribute names to their class.
	Attributes map[string]ChangeClass
}

// DefaultClassifierConfig returns the table matching a host that reports derived
// mesh evaluations as "outMesh" and point edits as "points".
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Default: ClassTopology,
		Attributes: map[string]ChangeClass{
			"outMesh":      ClassTopology,
			"faceVertices": ClassTopology,
			"creases":      ClassTopology,
			"points":       ClassAttributes,
		},
	}
}

// Config is the resolved application configuration.
type Config struct {
	LogLevel      LogLevel
	Descriptor    RefinementDescriptor
	Backends      BackendConfig
	Classifier    ClassifierConfig
	WatchDebounce time.Duration
	StatePath     string
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   LogLevelInfo,
		Descriptor: DefaultDescriptor(),
		Backends: BackendConfig{
			Preference: DefaultBackendPreference(),
		},
		Classifier:    DefaultClassifierConfig(),
		WatchDebounce: 50 * time.Millisecond,
		StatePath:     ".subdiv/plans.json",
	}
}
