package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads KEY=value files into the process environment before
// Load runs, so credentials can live outside the YAML file. Variables that
// are already set win. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// Redacted returns a copy safe to log
func (c Config) Redacted() Config {
	out := c
	out.AI.OpenAIKey = mask(c.AI.OpenAIKey)
	out.AI.AnthropicKey = mask(c.AI.AnthropicKey)
	out.Database.Password = mask(c.Database.Password)
	out.Redis.Password = mask(c.Redis.Password)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}
