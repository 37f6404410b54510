package internal

import (
	"strings"
	"time"
)

// Config carries every startup option of the relay. Values come from the
// environment; nothing else is read at runtime.
type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=8080"`
	DefaultRoom          string        `env:"DEFAULT_ROOM,default=general"`
	DigestAlgorithm      string        `env:"DIGEST_ALGORITHM,default=argon2id"`
	OriginPolicy         string        `env:"ORIGIN_POLICY,default=same-host"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BadgerGCInterval     time.Duration `env:"BADGER_GC_INTERVAL,default=5m"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	ColorSeed            int64         `env:"COLOR_SEED,default=1"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	MaxMessageSize       int64         `env:"MAX_MESSAGE_SIZE,default=4096"`
}

// Origins splits the comma-separated allowlist, dropping empty entries.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
