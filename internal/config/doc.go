// Package config loads the JSON runtime configuration for intents-agent and
// fills in defaults for the relay endpoint, intents contract and listeners.
package config
