// Package engine evaluates issuance policy rules against a booking before
// any vendor call is made.
package engine

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Rule is a single issuance requirement. Its expression is evaluated against
// the booking environment and must yield true for issuance to proceed.
type Rule struct {
	// Name is a human-readable identifier for logs/debugging.
	Name string `yaml:"name" json:"name"`

	// Description explains the intent of the rule.
	Description string `yaml:"description" json:"description"`

	// Expr is the boolean expression, e.g. "nights <= 30" or
	// "lock_id != ''". See Env for available variables.
	Expr string `yaml:"expr" json:"expr"`

	// compiled holds the pre-compiled form of Expr.
	compiled *vm.Program
}

// Env is the variable environment rules are evaluated against.
type Env struct {
	TransactionID string  `expr:"transaction_id"`
	LockID        string  `expr:"lock_id"`
	Guest         string  `expr:"guest"`
	Nights        float64 `expr:"nights"`
}

// DeniedError reports which rule rejected the issuance.
type DeniedError struct {
	Rule Rule
}

func (e DeniedError) Error() string {
	return fmt.Sprintf("issuance denied by rule '%s'", e.Rule.Name)
}

// Engine holds the compiled rule set. An empty rule set allows everything.
type Engine struct {
	rules []Rule
}

// New compiles the rules. A rule that does not compile or does not produce
// a boolean is a configuration error.
func New(rules []Rule) (*Engine, error) {
	compiled := make([]Rule, 0, len(rules))
	for idx, rule := range rules {
		if rule.Expr == "" {
			return nil, fmt.Errorf("rule '%s' (index %d) has empty expr", rule.Name, idx)
		}
		prog, err := expr.Compile(rule.Expr, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compiling rule '%s': %w", rule.Name, err)
		}
		rule.compiled = prog
		compiled = append(compiled, rule)
	}
	return &Engine{rules: compiled}, nil
}

// Evaluate runs every rule against the environment. The first rule that
// evaluates to false (or errors) denies the issuance.
func (e *Engine) Evaluate(env Env) error {
	for _, rule := range e.rules {
		out, err := expr.Run(rule.compiled, env)
		if err != nil {
			return fmt.Errorf("evaluating rule '%s': %w", rule.Name, err)
		}
		if ok, _ := out.(bool); !ok {
			return DeniedError{Rule: rule}
		}
	}
	return nil
}
