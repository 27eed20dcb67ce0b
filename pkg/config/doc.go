// Package config loads and validates the daemon configuration from YAML,
// covering the persistence backend, listen addresses, logging and the seed
// identities.
package config
