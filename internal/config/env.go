package config

import (
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/lava/internal/foundation/errors"
	"github.com/joho/godotenv"
)

// envFiles are tried in order; earlier files win because godotenv never
// overrides a variable that is already set.
var envFiles = []string{".env", ".env.local"}

// LoadEnv loads .env files found in dir into the process environment and
// returns the files it loaded. Variables already set are left alone.
func LoadEnv(dir string) ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load environment file").
				WithContext("path", path).
				Fatal().
				Build()
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
