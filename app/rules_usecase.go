package app

import (
	"github.com/rs/zerolog"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/config"
	"github.com/ludo-technologies/jsguard/internal/rules"
	"github.com/ludo-technologies/jsguard/service"
)

// RuleInfo describes one rule as configured for a run
type RuleInfo struct {
	RuleSetID     string          `json:"rule_set" yaml:"rule_set"`
	RuleSetActive bool            `json:"rule_set_active" yaml:"rule_set_active"`
	ID            string          `json:"id" yaml:"id"`
	Active        bool            `json:"active" yaml:"active"`
	Severity      domain.Severity `json:"severity" yaml:"severity"`
	Debt          string          `json:"debt" yaml:"debt"`
	Description   string          `json:"description" yaml:"description"`
}

// ListRules instantiates every provider against the configuration at
// configPath (discovered from the working directory when empty) and
// describes their rules in provider order
func ListRules(logger zerolog.Logger, configPath string, opts config.LoadOptions, extra ...api.Provider) ([]RuleInfo, error) {
	run, err := service.NewConfigurationLoader(logger).Load(configPath, ".", opts)
	if err != nil {
		return nil, err
	}
	registry, err := rules.NewRegistry(extra...)
	if err != nil {
		return nil, err
	}

	ctx := api.NewContext(logger, ".")
	var infos []RuleInfo
	for _, p := range registry.Providers() {
		scope := run.Rules.SubConfig(p.RuleSetID())
		setActive, err := config.IsActive(scope)
		if err != nil {
			return nil, err
		}
		rs, err := p.Instance(ctx, scope)
		if err != nil {
			return nil, domain.NewProviderValidationError(p.RuleSetID(), "failed to instantiate rule set", err)
		}
		if rs == nil {
			continue
		}
		for _, rule := range rs.Rules {
			issue := rule.Issue()
			infos = append(infos, RuleInfo{
				RuleSetID:     rs.ID,
				RuleSetActive: setActive,
				ID:            rule.ID(),
				Active:        setActive && rule.Active(),
				Severity:      issue.Severity,
				Debt:          issue.Debt.String(),
				Description:   issue.Description,
			})
		}
	}
	return infos, nil
}
