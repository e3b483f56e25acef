package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/lava/internal/foundation"
)

var configValidator = foundation.NewValidatorChain[*Config](
	foundation.NotEmpty("source", func(c *Config) string { return c.Source }),
	foundation.NotEmpty("destination", func(c *Config) string { return c.Destination }),
	siteDir("pages_dir", func(c *Config) string { return c.PagesDir }),
	siteDir("templates_dir", func(c *Config) string { return c.TemplatesDir }),
	siteDir("partials_dir", func(c *Config) string { return c.PartialsDir }),
	validateExclude,
	validateLogging,
)

// Validate checks the configuration. The returned error is a classified
// validation error listing every problem.
func (c *Config) Validate() error {
	return configValidator.Validate(c).ToError()
}

// siteDir requires a relative directory that stays inside its parent.
func siteDir(field string, get func(*Config) string) foundation.Validator[*Config] {
	return func(c *Config) foundation.ValidationResult {
		dir := get(c)
		switch {
		case strings.TrimSpace(dir) == "":
			return foundation.Invalid(foundation.NewFieldError(field, "required", "must not be empty"))
		case filepath.IsAbs(dir):
			return foundation.Invalid(foundation.NewFieldError(field, "relative", "must be relative to the source"))
		case filepath.Clean(dir) == "." || strings.HasPrefix(filepath.Clean(dir), ".."):
			return foundation.Invalid(foundation.NewFieldError(field, "inside", "must name a directory inside the source"))
		}
		return foundation.Valid()
	}
}

func validateExclude(c *Config) foundation.ValidationResult {
	result := foundation.Valid()
	for _, pattern := range c.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			result = result.Combine(foundation.Invalid(
				foundation.NewFieldError("exclude", "pattern", fmt.Sprintf("bad pattern %q", pattern)),
			))
		}
	}
	return result
}

func validateLogging(c *Config) foundation.ValidationResult {
	result := foundation.Valid()
	if _, err := logLevelNormalizer.NormalizeWithError(string(c.Logging.Level)); err != nil {
		result = result.Combine(foundation.Invalid(foundation.NewFieldError("logging.level", "one_of", err.Error())))
	}
	if _, err := logFormatNormalizer.NormalizeWithError(string(c.Logging.Format)); err != nil {
		result = result.Combine(foundation.Invalid(foundation.NewFieldError("logging.format", "one_of", err.Error())))
	}
	return result
}
