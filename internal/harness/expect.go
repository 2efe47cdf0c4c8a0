package harness

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
)

// evaluate compiles expression against env and requires a boolean result.
func evaluate(expression string, env map[string]any) (bool, error) {
	program, err := exprlang.Compile(expression,
		exprlang.Env(env),
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return false, fmt.Errorf("compile %q: %w", expression, err)
	}
	out, err := exprlang.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", expression, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("evaluate %q: result is %T, not bool", expression, out)
	}
	return ok, nil
}

// checkAll evaluates every expression and returns a message per failure.
func checkAll(label string, expressions []string, env map[string]any) []string {
	var failures []string
	for i, expression := range expressions {
		ok, err := evaluate(expression, env)
		switch {
		case err != nil:
			failures = append(failures, fmt.Sprintf("%s[%d]: %v", label, i, err))
		case !ok:
			failures = append(failures, fmt.Sprintf("%s[%d]: expected %q to hold", label, i, expression))
		}
	}
	return failures
}
