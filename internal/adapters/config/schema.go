package config

// Subdivfile represents the structure of the subdiv.yaml configuration file.
type Subdivfile struct {
	Version    string         `yaml:"version"`
	Log        LogDTO         `yaml:"log"`
	Descriptor *DescriptorDTO `yaml:"descriptor"`
	Backends   BackendsDTO    `yaml:"backends"`
	Classifier *ClassifierDTO `yaml:"classifier"`
	Watch      WatchDTO       `yaml:"watch"`
	State      string         `yaml:"state"`
}

// LogDTO configures the logger.
type LogDTO struct {
	Level string `yaml:"level"`
}

// DescriptorDTO holds the default refinement descriptor. Omitted fields keep their defaults.
type DescriptorDTO struct {
	Scheme         string `yaml:"scheme"`
	BoundaryRule   string `yaml:"boundaryRule"`
	IsolationLevel *int   `yaml:"isolationLevel"`
	Adaptive       *bool  `yaml:"adaptive"`
}

// BackendsDTO configures compute backend selection.
type BackendsDTO struct {
	Preference []string `yaml:"preference"`
	Workers    int      `yaml:"workers"`
}

// ClassifierDTO is the change classification table.
type ClassifierDTO struct {
	Default    string            `yaml:"default"`
	Attributes map[string]string `yaml:"attributes"`
}

// WatchDTO configures file watching.
type WatchDTO struct {
	Debounce string `yaml:"debounce"`
}
