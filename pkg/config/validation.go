package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Log level normalization is handled in ApplyDefaults; validation accepts
// both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if cfg.Search.RateLimit == 0 && cfg.Search.Burst > 0 {
		return fmt.Errorf("search: burst is set but rate_limit is 0")
	}

	if cfg.Cache.Hints.Type == "badger" {
		opts, err := decodeBadgerOptions(cfg.Cache.Hints.Badger)
		if err != nil {
			return fmt.Errorf("cache.hints.badger: %w", err)
		}
		if opts.Path == "" && !opts.InMemory {
			return fmt.Errorf("cache.hints.badger: path is required")
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
