package config

import (
	"os"

	ferrors "git.home.luguber.info/inful/lava/internal/foundation/errors"
	"gopkg.in/yaml.v3"
)

const initHeader = `# lava site configuration.
# Values may reference environment variables as ${NAME}; .env and .env.local
# next to this file are loaded first.
`

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Default()
	example.Exclude = []string{"*.swp", "README.md"}
	example.Report = "./_site/.lava-report.json"

	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.InternalError("failed to marshal config").WithCause(err).Build()
	}
	// #nosec G306 -- configuration is not secret
	if err := os.WriteFile(path, append([]byte(initHeader), data...), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write config file").
			WithCause(err).
			WithContext("path", path).
			Fatal().
			Build()
	}
	return nil
}
