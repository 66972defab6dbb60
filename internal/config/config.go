// Package config provides configuration management for the voitta-mcp server.
//
// Configuration controls:
//   - Capability mode (readonly vs full): readonly disables expression
//     evaluation, which can run mutating code inside the debuggee
//   - Permission flags: attach and evaluate toggles
//   - Introspection limits: timeouts, frame/depth/field/value-length caps
//   - Workspace root for the source-analysis tools
//
// Configuration can be loaded from a JSON file or use sensible defaults.
package config

import (
	"encoding/json"
	"os"
	"time"
)

// CapabilityMode defines the level of debugging capabilities exposed
type CapabilityMode string

const (
	ModeReadOnly CapabilityMode = "readonly" // inspection only, no evaluation
	ModeFull     CapabilityMode = "full"     // all tools enabled
)

// Config holds the server configuration
type Config struct {
	// Capability levels
	Mode          CapabilityMode `json:"mode"`
	AllowAttach   bool           `json:"allowAttach"`
	AllowEvaluate bool           `json:"allowEvaluate"`

	// Bounded waits for asynchronous backend operations
	StackTimeout    time.Duration `json:"stackTimeout"`
	EvaluateTimeout time.Duration `json:"evaluateTimeout"`

	// Introspection caps
	MaxStackFrames int `json:"maxStackFrames"`
	MaxDepth       int `json:"maxDepth"`
	MaxFields      int `json:"maxFields"`
	MaxValueLength int `json:"maxValueLength"`

	// Workspace root for source analysis tools
	Workspace string `json:"workspace"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:            ModeFull,
		AllowAttach:     true,
		AllowEvaluate:   true,
		StackTimeout:    5 * time.Second,
		EvaluateTimeout: 5 * time.Second,
		MaxStackFrames:  20,
		MaxDepth:        2,
		MaxFields:       10,
		MaxValueLength:  200,
		Workspace:       ".",
	}
}

// LoadConfig loads configuration from a JSON file, applying defaults for
// anything the file omits.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg.normalized(), nil
}

// normalized clamps zero or negative limits back to defaults so a sparse
// config file cannot disable the caps entirely.
func (c *Config) normalized() *Config {
	def := DefaultConfig()
	if c.StackTimeout <= 0 {
		c.StackTimeout = def.StackTimeout
	}
	if c.EvaluateTimeout <= 0 {
		c.EvaluateTimeout = def.EvaluateTimeout
	}
	if c.MaxStackFrames <= 0 {
		c.MaxStackFrames = def.MaxStackFrames
	}
	if c.MaxDepth < 0 {
		c.MaxDepth = def.MaxDepth
	}
	if c.MaxFields <= 0 {
		c.MaxFields = def.MaxFields
	}
	if c.MaxValueLength <= 0 {
		c.MaxValueLength = def.MaxValueLength
	}
	if c.Workspace == "" {
		c.Workspace = def.Workspace
	}
	return c
}

// CanAttach returns true if attaching to debug adapters is allowed
func (c *Config) CanAttach() bool {
	return c.AllowAttach
}

// CanEvaluate returns true if expression evaluation is allowed
func (c *Config) CanEvaluate() bool {
	return c.Mode == ModeFull && c.AllowEvaluate
}
