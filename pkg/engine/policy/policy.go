// Package policy decides which VM requests are admitted to placement.
package policy

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"gopkg.in/yaml.v3"
)

// RuleConfig is the layout of a rules file.
type RuleConfig struct {
	Rules []DynamicRule `yaml:"rules"`
}

// Admission filters requests through compiled rules.
type Admission struct {
	engine *CELEngine
	logger *slog.Logger
}

// LoadFile reads and compiles a YAML rules file.
func LoadFile(path string, logger *slog.Logger) (*Admission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var cfg RuleConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rules yaml: %w", err)
	}
	return New(cfg.Rules, logger)
}

// New compiles rules into an Admission.
func New(rules []DynamicRule, logger *slog.Logger) (*Admission, error) {
	if logger == nil {
		logger = slog.Default()
	}
	engine, err := NewCELEngine(logger)
	if err != nil {
		return nil, err
	}
	if err := engine.Compile(rules); err != nil {
		return nil, err
	}
	logger.Info("Compiled admission rules", "count", len(rules))
	return &Admission{engine: engine, logger: logger}, nil
}

// Filter splits requests into the admitted configuration and the IDs of
// rejected requests. Admitted items keep their IDs and relative order.
func (a *Admission) Filter(requests tetris.Configuration) (tetris.Configuration, []int) {
	admitted := tetris.Configuration{Number: requests.Number}
	var rejected []int

	for _, it := range requests.Items {
		matches := a.engine.Evaluate(EvaluationContext{ID: it.ID, Cores: it.Cores, RAM: it.RAM})

		var reject *DynamicRule
		for i, m := range matches {
			switch m.Action {
			case ActionReject:
				if reject == nil {
					reject = &matches[i]
				}
			case ActionWarn:
				a.logger.Warn("Request matched admission rule",
					"rule_id", m.ID,
					"config", requests.Number,
					"request", it.ID,
				)
			}
		}

		if reject != nil {
			a.logger.Info("Request rejected", "rule_id", reject.ID, "config", requests.Number, "request", it.ID)
			rejected = append(rejected, it.ID)
			continue
		}
		admitted.Items = append(admitted.Items, it)
	}
	return admitted, rejected
}

func sortRules(rules []compiledRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].rule.Priority > rules[j].rule.Priority
	})
}
