package cache

// ScopedKeyer prefixes every key of an inner Keyer. The CLI scopes keys by
// okrtree version so a new layout engine never reads layouts computed by
// an old one:
//
//	keyer := cache.NewScopedKeyer(nil, "okrtree@v1.4.0:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) scope(key string) string { return k.prefix + key }

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.scope(k.inner.HTTPKey(namespace, key))
}

func (k *ScopedKeyer) RecordsKey(source, query string) string {
	return k.scope(k.inner.RecordsKey(source, query))
}

func (k *ScopedKeyer) LayoutKey(recordsHash string, opts LayoutKeyOpts) string {
	return k.scope(k.inner.LayoutKey(recordsHash, opts))
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.scope(k.inner.ArtifactKey(layoutHash, opts))
}
