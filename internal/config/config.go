// Package config reads the relay's settings from the environment,
// after loading an optional .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"kml-relay/internal/discovery"
	"kml-relay/internal/protocol"
)

const (
	DefaultPort           = protocol.DefaultPort
	DefaultTunnelPort     = discovery.DefaultTunnelPort
	DefaultUploadDir      = "uploads"
	DefaultTunnelTimeout  = 10 * time.Second
	DefaultMaxUploadBytes = 32 << 20
)

// Config is passed explicitly to every component that needs it.
type Config struct {
	Port       int
	TunnelPort int
	UploadDir  string

	// PublicBaseURL bypasses tunnel discovery when set.
	PublicBaseURL string
	TunnelTimeout time.Duration

	MaxUploadBytes int64
	// Uploads are refused while the upload root's filesystem has less free space. Zero disables the check.
	MinFreeBytes uint64

	LogLevel string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:           DefaultPort,
		TunnelPort:     DefaultTunnelPort,
		UploadDir:      DefaultUploadDir,
		TunnelTimeout:  DefaultTunnelTimeout,
		MaxUploadBytes: DefaultMaxUploadBytes,
		LogLevel:       "info",
	}
}

// Load reads the given .env files (".env" when none are named; missing files
// are ignored) and then the process environment. Variables already present in
// the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(errors.Cause(err)) {
			return Config{}, errors.Wrapf(err, "loading %s", f)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function such as os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	var err error

	if c.Port, err = intVar(lookup, "PORT", c.Port); err != nil {
		return c, err
	}
	if c.TunnelPort, err = intVar(lookup, "NGROK_PORT", c.TunnelPort); err != nil {
		return c, err
	}
	if v, ok := lookup("UPLOAD_DIR"); ok && v != "" {
		c.UploadDir = v
	}
	if v, ok := lookup("PUBLIC_BASE_URL"); ok {
		c.PublicBaseURL = v
	}
	if v, ok := lookup("TUNNEL_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return c, errors.Wrap(err, "TUNNEL_TIMEOUT")
		}
		c.TunnelTimeout = d
	}
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return c, errors.Errorf("MAX_UPLOAD_BYTES: invalid value %q", v)
		}
		c.MaxUploadBytes = n
	}
	if v, ok := lookup("MIN_FREE_BYTES"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c, errors.Wrap(err, "MIN_FREE_BYTES")
		}
		c.MinFreeBytes = n
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	return c, nil
}

func intVar(lookup func(string) (string, bool), key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > 65535 {
		return def, errors.Errorf("%s: invalid port %q", key, v)
	}
	return n, nil
}
