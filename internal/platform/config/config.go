package config

import (
	"os"
	"time"
)

// Client captures SDK-level configuration: the long-lived partner credentials,
// the server selector and the default result callback.
type Client struct {
	PartnerID   string
	APIKey      string
	Server      string
	CallbackURL string
	HTTPTimeout time.Duration
}

// DefaultHTTPTimeout bounds a single request to the verification service.
// The polling loop applies its own attempt budget on top of this.
var DefaultHTTPTimeout = 30 * time.Second

// FromEnv builds a Client config from environment variables so main stays lean.
func FromEnv() Client {
	server := os.Getenv("VERID_SERVER")
	if server == "" {
		server = "0" // sandbox
	}

	timeout := DefaultHTTPTimeout
	if raw := os.Getenv("VERID_HTTP_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}

	return Client{
		PartnerID:   os.Getenv("VERID_PARTNER_ID"),
		APIKey:      os.Getenv("VERID_API_KEY"),
		Server:      server,
		CallbackURL: os.Getenv("VERID_CALLBACK_URL"),
		HTTPTimeout: timeout,
	}
}
