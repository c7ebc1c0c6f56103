// Package config centralizes workflow engine configuration: execution
// limits, zero-trust networking toggles, and resource ceilings. All
// configuration lives here rather than scattered across packages, with
// Default/Development/Production/Testing presets.
package config
