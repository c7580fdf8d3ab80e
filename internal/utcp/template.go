package utcp

import (
	"fmt"
	"os"
	"regexp"
)

// varPattern matches ${NAME} placeholders.
var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// MissingVariableError reports a placeholder that resolved neither in the
// manual's variables nor in the environment.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("variable ${%s} not found in manual variables or environment", e.Name)
}

// templateEngine resolves ${NAME} placeholders. Manual variables win over
// the process environment.
type templateEngine struct {
	vars map[string]string
}

func newTemplateEngine(vars map[string]string) *templateEngine {
	return &templateEngine{vars: vars}
}

// substitute replaces every placeholder in template, or fails on the first
// unresolvable name without producing partial output. Resolved values are
// not re-scanned for further placeholders.
func (e *templateEngine) substitute(template string) (string, error) {
	resolved := make(map[string]string)
	for _, match := range varPattern.FindAllStringSubmatch(template, -1) {
		name := match[1]
		if _, ok := resolved[name]; ok {
			continue
		}
		value, err := e.lookup(name)
		if err != nil {
			return "", err
		}
		resolved[name] = value
	}

	out := varPattern.ReplaceAllStringFunc(template, func(placeholder string) string {
		return resolved[placeholder[2:len(placeholder)-1]]
	})
	return out, nil
}

// substituteMap substitutes the values of m, leaving keys untouched.
func (e *templateEngine) substituteMap(m map[string]string) (map[string]string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		value, err := e.substitute(v)
		if err != nil {
			return nil, err
		}
		out[k] = value
	}
	return out, nil
}

func (e *templateEngine) lookup(name string) (string, error) {
	if value, ok := e.vars[name]; ok {
		return value, nil
	}
	if value, ok := os.LookupEnv(name); ok {
		return value, nil
	}
	return "", &MissingVariableError{Name: name}
}
