package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/okr"
)

// configEnv names the environment variable that overrides the config path.
const configEnv = "OKRTREE_CONFIG"

// Source kinds accepted by --source and [source] kind.
const (
	sourceFile     = "file"
	sourceAPI      = "api"
	sourceMongo    = "mongo"
	sourceSQLite   = "sqlite"
	sourcePostgres = "postgres"
)

// Cache backends accepted by [cache] backend.
const (
	cacheFile  = "file"
	cacheRedis = "redis"
	cacheNone  = "none"
)

// Config is the on-disk configuration. Flags override it.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Source SourceConfig `toml:"source"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig overrides the card geometry. Zero fields keep the default.
type LayoutConfig struct {
	NodeWidth       float64 `toml:"node_width"`
	NodeHeight      float64 `toml:"node_height"`
	Gap             float64 `toml:"gap"`
	VerticalSpacing float64 `toml:"vertical_spacing"`
	Margin          float64 `toml:"margin"`
	Strict          bool    `toml:"strict"`
}

// SourceConfig selects where records come from.
type SourceConfig struct {
	Kind  string    `toml:"kind"`
	Path  string    `toml:"path"`
	Query okr.Query `toml:"query"`

	APIURL   string            `toml:"api_url"`
	APIToken string            `toml:"api_token"`
	Headers  map[string]string `toml:"headers"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`

	SQLitePath  string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`

	// Actions maps an action name to a URL template; "{id}" is replaced by
	// the objective id.
	Actions map[string]string `toml:"actions"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
}

// ServerConfig configures `okrtree serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{Kind: sourceFile},
		Cache:  CacheConfig{Backend: cacheFile},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Geometry merges the layout section over the default geometry.
func (c LayoutConfig) Geometry() graph.Geometry {
	g := graph.DefaultGeometry()
	if c.NodeWidth > 0 {
		g.NodeWidth = c.NodeWidth
	}
	if c.NodeHeight > 0 {
		g.NodeHeight = c.NodeHeight
	}
	if c.Gap > 0 {
		g.Gap = c.Gap
	}
	if c.VerticalSpacing > 0 {
		g.VerticalSpacing = c.VerticalSpacing
	}
	if c.Margin > 0 {
		g.Margin = c.Margin
	}
	return g
}

// configPath resolves the config file: the explicit path, then
// $OKRTREE_CONFIG, then the XDG location. explicit reports whether the
// file must exist.
func configPath(flag string) (path string, explicit bool) {
	if flag != "" {
		return flag, true
	}
	if env := os.Getenv(configEnv); env != "" {
		return env, true
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), false
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".config", appName, "config.toml"), false
}

// LoadConfig reads the config file at path over the defaults. A missing
// file is an error only when required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return DefaultConfig(), nil
		}
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated fields and the geometry.
func (c Config) Validate() error {
	switch c.Source.Kind {
	case "", sourceFile, sourceAPI, sourceMongo, sourceSQLite, sourcePostgres:
	default:
		return errors.New(errors.ErrCodeInvalidSource, "unknown source kind %q (want file, api, mongo, sqlite or postgres)", c.Source.Kind)
	}
	switch c.Cache.Backend {
	case "", cacheFile, cacheRedis, cacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if err := c.Layout.Geometry().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "[layout]")
	}
	return nil
}
