package config

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Update is a versioned configuration snapshot published to a running loop.
type Update struct {
	Version uint64
	Config  *Config
}

// Override adjusts a freshly loaded config, e.g. with command line flags.
type Override func(*Config)

// Apply runs overrides on c in order and returns it.
func Apply(c *Config, overrides ...Override) *Config {
	for _, o := range overrides {
		o(c)
	}
	return c
}

// Reloader re-reads a config file on demand and publishes the result.
// The channel holds at most one pending update; a newer one replaces it.
// Overrides are reapplied to every reload so they outlive the file.
type Reloader struct {
	path      string
	overrides []Override
	version   atomic.Uint64
	ch        chan Update
	load      func(string) (*Config, error)
}

func NewReloader(path string, overrides ...Override) *Reloader {
	return &Reloader{
		path:      path,
		overrides: overrides,
		ch:        make(chan Update, 1),
		load:      Load,
	}
}

// Updates is polled by the frame loop at tick boundaries.
func (r *Reloader) Updates() <-chan Update { return r.ch }

// Reload reads the file and publishes it. Invalid files are reported and
// nothing is published.
func (r *Reloader) Reload() error {
	c, err := r.load(r.path)
	if err != nil {
		return err
	}
	Apply(c, r.overrides...)
	if err := c.Validate(); err != nil {
		return err
	}
	u := Update{Version: r.version.Add(1), Config: c}
	for {
		select {
		case r.ch <- u:
			return nil
		default:
		}
		// drop the stale pending update
		select {
		case <-r.ch:
		default:
		}
	}
}

// Run reloads whenever trigger fires, until ctx is done.
func (r *Reloader) Run(ctx context.Context, trigger <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-trigger:
			if err := r.Reload(); err != nil {
				log.Warn().Err(err).Str("path", r.path).Msg("config reload failed; keeping current config")
				continue
			}
			log.Info().Str("path", r.path).Uint64("version", r.version.Load()).Msg("config reloaded")
		}
	}
}
