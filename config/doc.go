// Package config loads the proxy configuration from YAML files and
// environment variables. It covers the listen addresses, the pool policy
// and eviction threshold, retry and timeout settings for forwarding, and
// the initial target list.
package config
