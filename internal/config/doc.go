// Package config provides centralized configuration management for the risk
// reports. It loads a YAML file, applies environment overrides, validates the
// result and resolves every input and output path.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern RISK_<SECTION>_<FIELD>:
//
//	RISK_PATHS_BASE_DIR=/data/thesis
//	RISK_RISK_CONFIDENCE=0.99
//	RISK_RISK_MODE=in_quarter
//	RISK_LOGGING_LEVEL=debug
//
// Event markers can only be set in the file.
//
// # Path Management
//
// Every path is relative to paths.base_dir, which itself is relative to the
// directory holding the configuration file:
//
//	paths := cfg.GetPaths()
//	if err := paths.EnsureDirectories(); err != nil { ... }
//	out := filepath.Join(paths.VaRDir, "result.xlsx")
package config
