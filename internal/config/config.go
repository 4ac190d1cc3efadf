package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings of the HTTP server.
type Config struct {
	Addr string
	// MaxInputBytes bounds the request body, which bounds the work of one call.
	MaxInputBytes int64
	ReadTimeout   time.Duration
	// RequestTimeout is applied per request by the router.
	RequestTimeout time.Duration
}

func Default() Config {
	return Config{
		Addr:           ":3001",
		MaxInputBytes:  1 << 20,
		ReadTimeout:    10 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

// Load reads the given .env files (".env" when none are given) into the process
// environment, then builds a Config from SM4_ADDR, SM4_MAX_INPUT_BYTES,
// SM4_READ_TIMEOUT and SM4_REQUEST_TIMEOUT. Missing files are not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: unable to load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, starting from Default.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	if v, ok := lookup("SM4_ADDR"); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup("SM4_MAX_INPUT_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: SM4_MAX_INPUT_BYTES must be a positive integer, got %q", v)
		}
		c.MaxInputBytes = n
	}
	var err error
	if c.ReadTimeout, err = duration(lookup, "SM4_READ_TIMEOUT", c.ReadTimeout); err != nil {
		return Config{}, err
	}
	if c.RequestTimeout, err = duration(lookup, "SM4_REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return Config{}, err
	}
	return c, nil
}

func duration(lookup func(string) (string, bool), key string, def time.Duration) (time.Duration, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
