// Package config holds the process-wide configuration for the
// antikvarium.hu metadata source, backed by viper.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// MaxResults is the maximum number of candidate pages fetched per query.
	MaxResults int
	// RequestTimeout is the per-request network timeout.
	RequestTimeout time.Duration
	// BaseURL is the root of the antikvarium.hu site. Overridable for tests.
	BaseURL string
	// UserAgent is sent on every outbound request.
	UserAgent string
)

// InitConfig initializes the global configuration from viper.
func InitConfig() {
	// Set default values
	viper.SetDefault("antikvarium.maxresults", 3)
	viper.SetDefault("antikvarium.timeout", "30s")
	viper.SetDefault("antikvarium.baseurl", "https://www.antikvarium.hu")
	viper.SetDefault("antikvarium.useragent", "antikvarium-metadata/2.0")

	// Get values from viper
	MaxResults = viper.GetInt("antikvarium.maxresults")
	RequestTimeout = viper.GetDuration("antikvarium.timeout")
	BaseURL = viper.GetString("antikvarium.baseurl")
	UserAgent = viper.GetString("antikvarium.useragent")
}

// SetMaxResults sets the candidate page limit.
func SetMaxResults(n int) {
	if n > 0 {
		MaxResults = n
	}
}

// SetRequestTimeout sets the per-request network timeout.
func SetRequestTimeout(d time.Duration) {
	if d > 0 {
		RequestTimeout = d
	}
}
