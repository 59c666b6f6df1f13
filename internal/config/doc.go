// Package config defines settings for the train-data command.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (CGANFETCH_ prefix)
//   - YAML configuration file
//
// Precedence is flags over environment over file over defaults. The
// resolved value is passed explicitly into the mirror dispatcher; nothing
// reads ambient state after startup.
package config
