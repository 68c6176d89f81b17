package exitconfig

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/hupe1980/adexit/internal/filter"
)

// ValidationError reports the first field of an exit config that failed
// validation.
type ValidationError struct {
	// Field is the dotted path of the offending member, e.g.
	// "targets.landing.final_url". Empty for document-level errors.
	Field string
	// Msg is the human-readable reason.
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid exit config: %s", e.Msg)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks raw against the exit config schema and returns the
// validated config. Validation is pure: the same input always yields the
// same result and raw is not modified.
//
// Rules are applied in order: filter specs first (a missing "filters"
// member defaults to an empty object), then "targets", then every target's
// final_url and filter references.
func Validate(raw []byte) (*ExitConfig, error) {
	if !gjson.ValidBytes(raw) {
		return nil, invalid("", "config is not valid JSON")
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, invalid("", "config must be a JSON object")
	}

	normalized := bytes.Clone(raw)

	filtersDoc := doc.Get("filters")
	if !filtersDoc.Exists() || filtersDoc.Type == gjson.Null {
		var err error

		normalized, err = sjson.SetRawBytes(normalized, "filters", []byte("{}"))
		if err != nil {
			return nil, fmt.Errorf("defaulting filters: %w", err)
		}

		filtersDoc = gjson.Parse("{}")
	}

	filters, err := validateFilters(filtersDoc)
	if err != nil {
		return nil, err
	}

	targets, err := validateTargets(doc.Get("targets"), filters)
	if err != nil {
		return nil, err
	}

	return &ExitConfig{
		targets: targets,
		filters: filters,
		raw:     normalized,
	}, nil
}

func validateFilters(doc gjson.Result) (map[string]filter.Spec, error) {
	if !doc.IsObject() {
		return nil, invalid("filters", "'filters' must be an object")
	}

	specs := make(map[string]filter.Spec)

	var err error

	doc.ForEach(func(key, value gjson.Result) bool {
		var spec filter.Spec

		spec, err = validateFilterSpec(key.String(), value)
		if err != nil {
			return false
		}

		specs[key.String()] = spec

		return true
	})

	if err != nil {
		return nil, err
	}

	return specs, nil
}

func validateFilterSpec(name string, value gjson.Result) (filter.Spec, error) {
	field := "filters." + name

	if !value.IsObject() {
		return nil, invalid(field, "filter specification '%s' is malformed", name)
	}

	typ := value.Get("type")
	if typ.Type != gjson.String || !filter.IsKnown(filter.Type(typ.Str)) {
		return nil, invalid(field+".type", "'%s' is not a known filter type", typ.String())
	}

	switch filter.Type(typ.Str) {
	case filter.TypeClickDelay:
		delay := value.Get("delay")
		if delay.Type != gjson.Number || delay.Num <= 0 {
			return nil, invalid(field+".delay", "delay of filter '%s' must be a number greater than 0", name)
		}

		return filter.NewDelaySpec(delay.Num), nil

	default: // filter.TypeClickLocation
		spec := filter.LocationSpec{}

		bounds := []struct {
			key string
			dst *float64
		}{
			{"top", &spec.Top},
			{"right", &spec.Right},
			{"bottom", &spec.Bottom},
			{"left", &spec.Left},
		}

		for _, b := range bounds {
			v := value.Get(b.key)
			if !v.Exists() {
				continue
			}

			if v.Type != gjson.Number || v.Num < 0 {
				return nil, invalid(field+"."+b.key, "%s of filter '%s' must be a non-negative number", b.key, name)
			}

			*b.dst = v.Num
		}

		if sel := value.Get("selector"); sel.Exists() {
			if sel.Type != gjson.String {
				return nil, invalid(field+".selector", "selector of filter '%s' must be a string", name)
			}

			spec.Selector = sel.Str
		}

		return spec, nil
	}
}

func validateTargets(doc gjson.Result, filters map[string]filter.Spec) (map[string]Target, error) {
	if !doc.IsObject() {
		return nil, invalid("targets", "'targets' must be an object")
	}

	targets := make(map[string]Target)

	var err error

	doc.ForEach(func(key, value gjson.Result) bool {
		var t Target

		t, err = validateTarget(key.String(), value, filters)
		if err != nil {
			return false
		}

		targets[key.String()] = t

		return true
	})

	if err != nil {
		return nil, err
	}

	return targets, nil
}

func validateTarget(name string, value gjson.Result, filters map[string]filter.Spec) (Target, error) {
	field := "targets." + name

	if !value.IsObject() {
		return Target{}, invalid(field, "target '%s' must be an object", name)
	}

	if value.Get("final_url").Type != gjson.String {
		return Target{}, invalid(field+".final_url", "final_url of %s must be a string", name)
	}

	tracking := value.Get("tracking_urls")
	if err := validateStrings(tracking, field+".tracking_urls", "tracking_urls of "+name); err != nil {
		return Target{}, err
	}

	refs := value.Get("filters")
	if err := validateStrings(refs, field+".filters", "filters of "+name); err != nil {
		return Target{}, err
	}

	for _, ref := range refs.Array() {
		if _, ok := filters[ref.Str]; !ok {
			return Target{}, invalid(field+".filters", "filter '%s' not defined", ref.Str)
		}
	}

	vars := value.Get("vars")
	if err := validateVars(vars, field+".vars", name); err != nil {
		return Target{}, err
	}

	// Built from the checked results: with repeated keys gjson sees the
	// first occurrence, a second decode would keep the last.
	t := Target{
		FinalURL:     value.Get("final_url").Str,
		TrackingURLs: stringsOf(tracking),
		Filters:      stringsOf(refs),
	}

	if vars.IsObject() {
		t.Vars, _ = vars.Value().(map[string]any)
	}

	return t, nil
}

func stringsOf(v gjson.Result) []string {
	items := v.Array()
	if len(items) == 0 {
		return nil
	}

	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Str
	}

	return out
}

// validateStrings accepts an absent or null member, or an array of strings.
func validateStrings(v gjson.Result, field, what string) error {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}

	if !v.IsArray() {
		return invalid(field, "%s must be an array of strings", what)
	}

	for _, item := range v.Array() {
		if item.Type != gjson.String {
			return invalid(field, "%s must be an array of strings", what)
		}
	}

	return nil
}

func validateVars(v gjson.Result, field, target string) error {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}

	if !v.IsObject() {
		return invalid(field, "vars of %s must be an object", target)
	}

	var err error

	v.ForEach(func(key, value gjson.Result) bool {
		ok := isScalar(value)
		if value.IsArray() {
			ok = true

			for _, item := range value.Array() {
				ok = ok && isScalar(item)
			}
		}

		if !ok {
			err = invalid(field+"."+key.String(), "variable '%s' of %s must be a scalar or an array of scalars", key.String(), target)
			return false
		}

		return true
	})

	return err
}

func isScalar(v gjson.Result) bool {
	switch v.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return true
	default:
		return false
	}
}
