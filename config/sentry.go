package config

import "time"

// SentryConfig defines settings for Sentry error monitoring.
type SentryConfig struct {
	DSN              string            `json:"dsn"`
	Environment      string            `json:"environment"`
	TracesSampleRate float64           `json:"traces_sample_rate"`
	Release          string            `json:"release"`
	ServerName       string            `json:"server_name"`
	Tags             map[string]string `json:"tags"`
	FlushSeconds     int               `json:"flush_seconds"`
}

// FlushTimeout bounds the flush on panic and shutdown. Defaults to 2s.
func (c SentryConfig) FlushTimeout() time.Duration {
	if c.FlushSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.FlushSeconds) * time.Second
}
