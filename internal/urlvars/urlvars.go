// Package urlvars expands ${NAME} placeholders in exit URLs.
//
// Values come from the target's configured vars first, then from the
// built-in variables RANDOM and TIMESTAMP. Unknown names expand to the
// empty string. Every substituted value is component-escaped, so a space
// becomes %20; array values are escaped element-wise and joined with
// commas.
package urlvars

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"

	"k8s.io/utils/clock"
)

// ErrUnterminated is returned for a "${" without a closing brace.
var ErrUnterminated = errors.New("unterminated variable reference")

// Built-in variable names.
const (
	VarRandom    = "RANDOM"
	VarTimestamp = "TIMESTAMP"
)

// Expander substitutes variables in URL templates.
type Expander struct {
	clock  clock.PassiveClock
	random func() float64
}

// Option configures an Expander.
type Option func(*Expander)

// WithClock sets the clock used for TIMESTAMP.
func WithClock(clk clock.PassiveClock) Option {
	return func(e *Expander) {
		e.clock = clk
	}
}

// WithRandom sets the source used for RANDOM.
func WithRandom(fn func() float64) Option {
	return func(e *Expander) {
		e.random = fn
	}
}

// New creates an Expander.
func New(opts ...Option) *Expander {
	e := &Expander{
		clock:  clock.RealClock{},
		random: rand.Float64,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Expand replaces every ${NAME} in template and checks that the result
// parses as a URL.
func (e *Expander) Expand(template string, vars map[string]any) (string, error) {
	var b strings.Builder

	rest := template
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			break
		}

		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return "", fmt.Errorf("expanding %q: %w", template, ErrUnterminated)
		}

		b.WriteString(rest[:start])
		b.WriteString(e.lookup(rest[start+2:start+end], vars))
		rest = rest[start+end+1:]
	}

	out := b.String()
	if _, err := url.Parse(out); err != nil {
		return "", fmt.Errorf("expanding %q: %w", template, err)
	}

	return out, nil
}

func (e *Expander) lookup(name string, vars map[string]any) string {
	if v, ok := vars[name]; ok {
		return encode(v)
	}

	switch name {
	case VarRandom:
		return strconv.FormatFloat(e.random(), 'f', -1, 64)
	case VarTimestamp:
		return strconv.FormatInt(e.clock.Now().UnixMilli(), 10)
	default:
		return ""
	}
}

func encode(v any) string {
	if items, ok := v.([]any); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = encode(item)
		}

		return strings.Join(parts, ",")
	}

	return escapeComponent(scalar(v))
}

// escapeComponent escapes s for use anywhere in a URL. A space becomes
// %20, never "+", since "+" is literal in paths.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
