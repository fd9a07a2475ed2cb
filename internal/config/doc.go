// Package config loads server settings from config.yaml and CORKBOARD_*
// environment variables with viper and validates them before any component
// is built.
package config
