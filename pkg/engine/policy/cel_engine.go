package policy

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/cel-go/cel"
)

// Actions a rule can take on a matching request.
const (
	ActionReject = "reject"
	ActionWarn   = "warn"
)

// DynamicRule is a user-defined admission rule loaded from YAML.
type DynamicRule struct {
	ID        string `yaml:"id"`
	Condition string `yaml:"condition"` // CEL expression: "cores > 8 || ram > 32"
	Action    string `yaml:"action"`
	Priority  int    `yaml:"priority"`
}

// EvaluationContext exposes one request to rule expressions.
type EvaluationContext struct {
	ID    int
	Cores int
	RAM   int
}

func (c EvaluationContext) vars() map[string]interface{} {
	return map[string]interface{}{
		"id":    int64(c.ID),
		"cores": int64(c.Cores),
		"ram":   int64(c.RAM),
	}
}

type compiledRule struct {
	rule DynamicRule
	prg  cel.Program
}

// CELEngine compiles and evaluates admission rules.
type CELEngine struct {
	env    *cel.Env
	rules  []compiledRule
	logger *slog.Logger
}

// NewCELEngine declares the request variables rules may reference.
// Runtime rule failures are reported through logger.
func NewCELEngine(logger *slog.Logger) (*CELEngine, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.IntType),
		cel.Variable("cores", cel.IntType),
		cel.Variable("ram", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return &CELEngine{env: env, logger: logger}, nil
}

// Compile turns rules into programs. Rules must yield a bool.
func (e *CELEngine) Compile(rules []DynamicRule) error {
	for _, r := range rules {
		switch r.Action {
		case ActionReject, ActionWarn:
		default:
			return fmt.Errorf("rule %s: unknown action %q", r.ID, r.Action)
		}

		ast, issues := e.env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s compilation error: %w", r.ID, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return fmt.Errorf("rule %s must evaluate to bool, got %s", r.ID, ast.OutputType())
		}

		prg, err := e.env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %s program creation error: %w", r.ID, err)
		}
		e.rules = append(e.rules, compiledRule{rule: r, prg: prg})
	}
	sortRules(e.rules)
	return nil
}

// Evaluate returns the rules matching data, highest priority first.
// A rule that fails at runtime is logged and treated as not matching.
func (e *CELEngine) Evaluate(data EvaluationContext) []DynamicRule {
	var matches []DynamicRule
	vars := data.vars()

	for _, cr := range e.rules {
		out, _, err := cr.prg.Eval(vars)
		if err != nil {
			e.logger.Error("Rule evaluation failed", "rule_id", cr.rule.ID, "request", data.ID, "error", err)
			continue
		}
		if match, ok := out.Value().(bool); ok && match {
			matches = append(matches, cr.rule)
		}
	}
	return matches
}
