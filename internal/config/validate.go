package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/ludo-technologies/jsguard/domain"
)

// defaultPropertyExcludes are property paths accepted even when the
// default configuration does not declare them
var defaultPropertyExcludes = []string{
	`.*>excludes`,
	`.*>includes`,
	`.*>active`,
	`.*>severity`,
	`.*>aliases`,
	`.*>debt`,
	`.*>.*>excludes`,
	`.*>.*>includes`,
	`.*>.*>active`,
	`.*>.*>severity`,
	`.*>.*>aliases`,
	`.*>.*>debt`,
	SettingsSection,
	SettingsSection + `>.*`,
}

// maxSuggestionDistance bounds the edit distance of a "did you mean" hint
const maxSuggestionDistance = 3

// ValidationSettings controls configuration validation
type ValidationSettings struct {
	WarningsAsErrors bool
	ExcludePatterns  []*regexp.Regexp
}

// DefaultValidationSettings reads the "config" section of the user configuration
func DefaultValidationSettings(user Config) (ValidationSettings, error) {
	warningsAsErrors, err := Value(user.SubConfig("config"), "warningsAsErrors", false)
	if err != nil {
		return ValidationSettings{}, err
	}
	patterns := make([]*regexp.Regexp, 0, len(defaultPropertyExcludes))
	for _, p := range defaultPropertyExcludes {
		patterns = append(patterns, regexp.MustCompile("^"+p+"$"))
	}
	return ValidationSettings{WarningsAsErrors: warningsAsErrors, ExcludePatterns: patterns}, nil
}

// ValidationEnabled reports whether the user configuration asks for validation
func ValidationEnabled(user Config) (bool, error) {
	return Value(user.SubConfig("config"), "validation", true)
}

// Validate compares the user configuration against the default one and
// reports unknown or misshapen properties. Error-level notifications make
// the configuration unusable.
func Validate(user, base *YAMLConfig, settings ValidationSettings) []domain.Notification {
	if user == nil || base == nil {
		return nil
	}
	v := &validator{settings: settings}
	v.testKeys(user.Properties(), base.Properties(), "")
	return v.notifications
}

type validator struct {
	settings      ValidationSettings
	notifications []domain.Notification
}

func (v *validator) testKeys(current, base map[string]any, parentPath string) {
	for _, prop := range sortedKeys(current) {
		propertyPath := prop
		if parentPath != "" {
			propertyPath = parentPath + ">" + prop
		}
		if v.isExcluded(propertyPath) {
			continue
		}

		baseValue, known := base[prop]
		if !known {
			v.add(domain.NotificationError, propertyDoesNotExist(propertyPath, prop, base))
			continue
		}

		if _, isString := current[prop].(string); isString {
			if _, isList := baseValue.([]any); isList {
				v.add(v.warningLevel(), fmt.Sprintf("Property '%s' should be a YAML array instead of a comma-separated String.", propertyPath))
			}
		}

		next, nextIsMap := current[prop].(map[string]any)
		nextBase, baseIsMap := baseValue.(map[string]any)
		switch {
		case !nextIsMap && baseIsMap:
			v.add(domain.NotificationError, fmt.Sprintf("Nested config expected for '%s'.", propertyPath))
		case nextIsMap && !baseIsMap:
			v.add(domain.NotificationError, fmt.Sprintf("Unexpected nested config for '%s'.", propertyPath))
		case nextIsMap && baseIsMap:
			v.testKeys(next, nextBase, propertyPath)
		}
	}
}

func (v *validator) isExcluded(path string) bool {
	for _, re := range v.settings.ExcludePatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (v *validator) warningLevel() domain.NotificationLevel {
	if v.settings.WarningsAsErrors {
		return domain.NotificationError
	}
	return domain.NotificationWarning
}

func (v *validator) add(level domain.NotificationLevel, msg string) {
	v.notifications = append(v.notifications, domain.Notification{Level: level, Message: msg})
}

func propertyDoesNotExist(path, prop string, base map[string]any) string {
	msg := fmt.Sprintf("Property '%s' is misspelled or does not exist.", path)
	if suggestion := closestKey(prop, base); suggestion != "" {
		msg += fmt.Sprintf(" Did you mean '%s'?", suggestion)
	}
	return msg
}

// closestKey returns the key of base nearest to prop by edit distance
func closestKey(prop string, base map[string]any) string {
	best, bestDistance := "", maxSuggestionDistance+1
	for _, candidate := range sortedKeys(base) {
		d := levenshtein.ComputeDistance(strings.ToLower(prop), strings.ToLower(candidate))
		if d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	return best
}

// ValidationError turns error-level notifications into a configuration error
func ValidationError(notifications []domain.Notification) error {
	var msgs []string
	for _, n := range notifications {
		if n.Level == domain.NotificationError {
			msgs = append(msgs, n.Message)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return domain.NewConfigError("Run failed with "+fmt.Sprint(len(msgs))+" invalid config properties:\n"+strings.Join(msgs, "\n"), nil)
}
