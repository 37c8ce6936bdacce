/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration of the module's components (logger, rate limiter, CRPT client)
// from YAML/JSON files, readers and environment variables.
//
// Every component exposes a type implementing the Config interface. Loader first asks each of them
// to register default values in the DataProvider and then to read and validate the final values.
package config

// Config is a common interface for configuration objects that may be used by Loader.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is an interface for providing key prefix that will be used for configuration parameters.
type KeyPrefixProvider interface {
	KeyPrefix() string
}

// ProviderFor returns a DataProvider that resolves keys of the passed config
// (prefixed when the config implements KeyPrefixProvider).
func ProviderFor(cfg interface{}, dp DataProvider) DataProvider {
	if kp, ok := cfg.(KeyPrefixProvider); ok && kp.KeyPrefix() != "" {
		return NewKeyPrefixedDataProvider(dp, kp.KeyPrefix())
	}
	return dp
}
