// Package config loads the courseappd process configuration with viper.
//
// Keys are grouped under server, store, log and auth. Every key can be overridden
// from the environment with the COURSEAPP_ prefix and dots replaced by underscores,
// for example COURSEAPP_AUTH_SECRET or COURSEAPP_STORE_DRIVER.
package config
