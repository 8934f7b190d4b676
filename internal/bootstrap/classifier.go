package bootstrap

import (
	"github.com/jonesrussell/company-url-collector/internal/canonical"
	"github.com/jonesrussell/company-url-collector/internal/classifier"
	"github.com/jonesrussell/company-url-collector/internal/config"
)

// SetupClassifier builds the classifier from the optional rules file and the
// domain mode.
func SetupClassifier(cfg config.ClassifierConfig) (*classifier.Classifier, error) {
	mode, err := canonical.ParseMode(cfg.DomainMode)
	if err != nil {
		return nil, err
	}

	rules := classifier.DefaultRules()
	if cfg.RulesFile != "" {
		if rules, err = classifier.LoadRules(cfg.RulesFile); err != nil {
			return nil, err
		}
	}
	return classifier.New(rules, canonical.NewNormalizer(mode))
}
