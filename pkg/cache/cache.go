// Package cache stores intermediate pipeline results: fetched records,
// computed layouts and rendered artifacts.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: JSON entry files under a directory (CLI default)
//   - [RedisCache]: a shared redis instance (server deployments)
//   - [NullCache]: never stores anything (--no-cache)
//
// Keys are produced by a [Keyer] so that every input that changes a result
// also changes its key. Values are opaque bytes.
package cache

import (
	"context"
	"time"
)

// Default time-to-live per entry kind. Records change as people edit OKRs,
// while layouts and artifacts are keyed by content and never go stale.
const (
	TTLHTTP     = 5 * time.Minute
	TTLRecords  = 10 * time.Minute
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// A miss is reported as (nil, false, nil), not as an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts lists every layout input besides the records themselves.
type LayoutKeyOpts struct {
	Root            string
	Viewer          string
	BusinessUnit    string
	AssignedTo      string
	RosterHash      string
	Strict          bool
	NodeWidth       float64
	NodeHeight      float64
	Gap             float64
	VerticalSpacing float64
	Margin          float64
}

// ArtifactKeyOpts lists the render inputs besides the layout.
type ArtifactKeyOpts struct {
	VizType  string
	Format   string
	Title    string
	Edges    bool
	Detailed bool
	Scale    float64
}

// Keyer derives cache keys.
type Keyer interface {
	HTTPKey(namespace, key string) string
	RecordsKey(source, query string) string
	LayoutKey(recordsHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

func (DefaultKeyer) RecordsKey(source, query string) string {
	return hashKey("records", source, query)
}

func (DefaultKeyer) LayoutKey(recordsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", recordsHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
