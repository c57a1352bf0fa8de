package service

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/config"
)

// RunConfiguration is everything a run reads from the configuration file
type RunConfiguration struct {
	// Path is the file the configuration was read from, "" for the defaults
	Path string

	// Settings are the engine settings of the "jsguard" section
	Settings *config.Settings

	// Rules is the effective rule configuration handed to providers
	Rules config.Config

	// User is the raw user rule configuration, nil without a file
	User *config.YAMLConfig

	// Notifications holds configuration validation messages
	Notifications []domain.Notification
}

// ConfigurationLoaderImpl loads and validates run configurations
type ConfigurationLoaderImpl struct {
	logger zerolog.Logger
}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader(logger zerolog.Logger) *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{logger: logger}
}

// FindDefaultConfigFile searches for a configuration file for the target path
func (c *ConfigurationLoaderImpl) FindDefaultConfigFile(target string) string {
	return config.DiscoverConfig(target)
}

// Load reads the configuration at path. An empty path discovers a file
// starting at target; without one the shipped defaults are used.
func (c *ConfigurationLoaderImpl) Load(path, target string, opts config.LoadOptions) (*RunConfiguration, error) {
	if path == "" {
		path = c.FindDefaultConfigFile(target)
	}
	if path != "" {
		c.logger.Debug().Str("path", path).Msg("using configuration file")
	}

	settings, err := config.LoadSettings(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load engine settings", err)
	}

	rules, user, err := config.Load(path, opts)
	if err != nil {
		return nil, asConfigError("failed to load rule configuration", err)
	}

	run := &RunConfiguration{
		Path:     path,
		Settings: settings,
		Rules:    rules,
		User:     user,
	}
	if user == nil {
		return run, nil
	}

	notifications, err := c.validate(user)
	if err != nil {
		return nil, err
	}
	run.Notifications = notifications
	return run, nil
}

// validate compares the user configuration with the default one. Error-level
// notifications fail the load.
func (c *ConfigurationLoaderImpl) validate(user *config.YAMLConfig) ([]domain.Notification, error) {
	enabled, err := config.ValidationEnabled(user)
	if err != nil {
		return nil, asConfigError("invalid validation settings", err)
	}
	if !enabled {
		return nil, nil
	}

	defaults, err := config.DefaultRuleConfig()
	if err != nil {
		return nil, domain.NewConfigError("failed to load default configuration", err)
	}
	settings, err := config.DefaultValidationSettings(user)
	if err != nil {
		return nil, asConfigError("invalid validation settings", err)
	}

	notifications := config.Validate(user, defaults, settings)
	for _, n := range notifications {
		c.logger.Warn().Str("level", string(n.Level)).Msg(n.Message)
	}
	if err := config.ValidationError(notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// asConfigError keeps domain and value errors intact and wraps anything else
func asConfigError(message string, err error) error {
	var domainErr domain.DomainError
	var valueErr *config.InvalidValueError
	if errors.As(err, &domainErr) || errors.As(err, &valueErr) {
		return err
	}
	return domain.NewConfigError(message, err)
}
