package exitconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/adexit/internal/filter"
)

// requireValidationError asserts that err is a *ValidationError whose
// message contains want.
func requireValidationError(t *testing.T, err error, want string) *ValidationError {
	t.Helper()

	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Msg, want)

	return vErr
}

// ---------------------------------------------------------------------------
// Valid documents
// ---------------------------------------------------------------------------

func TestValidate_Minimal(t *testing.T) {
	cfg, err := Validate([]byte(`{"targets":{"simple":{"final_url":"https://example.com/simple"}}}`))
	require.NoError(t, err)

	target, ok := cfg.Target("simple")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/simple", target.FinalURL)
	assert.Empty(t, target.Filters)
	assert.Empty(t, cfg.FilterNames())
}

func TestValidate_DefaultsFiltersInRaw(t *testing.T) {
	cfg, err := Validate([]byte(`{"targets":{}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"targets":{},"filters":{}}`, string(cfg.Raw()))
}

func TestValidate_NullFiltersDefaulted(t *testing.T) {
	cfg, err := Validate([]byte(`{"targets":{},"filters":null}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"targets":{},"filters":{}}`, string(cfg.Raw()))
}

func TestValidate_Full(t *testing.T) {
	raw := []byte(`{
		"targets": {
			"landing": {
				"final_url": "https://example.com/landing?c=${campaign}",
				"tracking_urls": ["https://t.example/a", "https://t.example/b"],
				"vars": {"campaign": "spring", "ids": [1, 2, "x"], "debug": false},
				"filters": ["slow", "edges"]
			}
		},
		"filters": {
			"slow": {"type": "clickDelay", "delay": 2500},
			"edges": {"type": "clickLocation", "top": 10, "left": 5, "selector": "#ad"}
		}
	}`)

	cfg, err := Validate(raw)
	require.NoError(t, err)

	target, ok := cfg.Target("landing")
	require.True(t, ok)
	assert.Equal(t, []string{"https://t.example/a", "https://t.example/b"}, target.TrackingURLs)
	assert.Equal(t, []string{"slow", "edges"}, target.Filters)
	assert.Equal(t, "spring", target.Vars["campaign"])
	assert.Equal(t, []any{float64(1), float64(2), "x"}, target.Vars["ids"])

	slow, ok := cfg.Filter("slow")
	require.True(t, ok)
	assert.Equal(t, filter.DelaySpec{Delay: 2500 * time.Millisecond}, slow)

	edges, ok := cfg.Filter("edges")
	require.True(t, ok)
	assert.Equal(t, filter.LocationSpec{Top: 10, Left: 5, Selector: "#ad"}, edges)

	assert.Equal(t, []string{"edges", "slow"}, cfg.FilterNames())
	assert.Equal(t, []string{"landing"}, cfg.TargetNames())
}

func TestValidate_PreservesUnknownFields(t *testing.T) {
	raw := `{"targets":{"a":{"final_url":"u","behaviors":{"x":1}}},"filters":{},"version":2}`

	cfg, err := Validate([]byte(raw))
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(cfg.Raw()))
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	raw := []byte(`{"targets":{}}`)
	orig := string(raw)

	_, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, orig, string(raw))
}

func TestValidate_Deterministic(t *testing.T) {
	raw := []byte(`{"targets":{"a":{"final_url":"u","filters":["nope"]}}}`)

	_, err1 := Validate(raw)
	_, err2 := Validate(raw)
	assert.Equal(t, err1, err2)
}

func TestConfig_AccessorsReturnCopies(t *testing.T) {
	cfg, err := Validate([]byte(`{"targets":{"a":{"final_url":"u","tracking_urls":["t"]}}}`))
	require.NoError(t, err)

	target, _ := cfg.Target("a")
	target.TrackingURLs[0] = "changed"

	again, _ := cfg.Target("a")
	assert.Equal(t, "t", again.TrackingURLs[0])

	raw := cfg.Raw()
	raw[0] = 'x'
	assert.Equal(t, byte('{'), cfg.Raw()[0])
}

func TestEmpty(t *testing.T) {
	cfg := Empty()
	_, ok := cfg.Target(DefaultTargetName)
	assert.False(t, ok)
	assert.Empty(t, cfg.TargetNames())
}

// ---------------------------------------------------------------------------
// Document-level failures
// ---------------------------------------------------------------------------

func TestValidate_MalformedJSON(t *testing.T) {
	_, err := Validate([]byte(`{"targets":`))
	requireValidationError(t, err, "not valid JSON")
}

func TestValidate_NotAnObject(t *testing.T) {
	_, err := Validate([]byte(`[1,2]`))
	requireValidationError(t, err, "must be a JSON object")
}

// ---------------------------------------------------------------------------
// Targets
// ---------------------------------------------------------------------------

func TestValidate_TargetsMissingOrWrongType(t *testing.T) {
	for _, raw := range []string{
		`{}`,
		`{"filters":{}}`,
		`{"targets":null}`,
		`{"targets":"nope"}`,
		`{"targets":42}`,
		`{"targets":[{"final_url":"u"}]}`,
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := Validate([]byte(raw))
			vErr := requireValidationError(t, err, "'targets' must be an object")
			assert.Equal(t, "targets", vErr.Field)
		})
	}
}

func TestValidate_FinalURLMissingOrWrongType(t *testing.T) {
	for _, target := range []string{
		`{}`,
		`{"final_url":null}`,
		`{"final_url":1}`,
		`{"final_url":["u"]}`,
		`{"final_url":{"href":"u"}}`,
	} {
		t.Run(target, func(t *testing.T) {
			_, err := Validate([]byte(`{"targets":{"t1":` + target + `}}`))
			vErr := requireValidationError(t, err, "final_url of t1 must be a string")
			assert.Equal(t, "targets.t1.final_url", vErr.Field)
		})
	}
}

func TestValidate_TargetNotObject(t *testing.T) {
	_, err := Validate([]byte(`{"targets":{"t1":"https://example.com"}}`))
	requireValidationError(t, err, "target 't1' must be an object")
}

func TestValidate_UndefinedFilterReference(t *testing.T) {
	raw := `{"targets":{"t1":{"final_url":"u","filters":["known","missing"]}},
		"filters":{"known":{"type":"clickDelay","delay":10}}}`

	_, err := Validate([]byte(raw))
	vErr := requireValidationError(t, err, "filter 'missing' not defined")
	assert.Equal(t, "targets.t1.filters", vErr.Field)
}

func TestValidate_UndefinedFilterWithoutFiltersMember(t *testing.T) {
	_, err := Validate([]byte(`{"targets":{"t1":{"final_url":"u","filters":["x"]}}}`))
	requireValidationError(t, err, "filter 'x' not defined")
}

func TestValidate_RepeatedKeysUseCheckedValues(t *testing.T) {
	raw := `{"targets":{"t1":{
		"final_url":"https://e.com/first","final_url":"https://e.com/second",
		"filters":["edges"],"filters":["ghost"],
		"vars":{"c":"ok"},"vars":{"c":{"nested":true}}
	}},"filters":{"edges":{"type":"clickLocation","top":10}}}`

	cfg, err := Validate([]byte(raw))
	require.NoError(t, err)

	target, ok := cfg.Target("t1")
	require.True(t, ok)
	assert.Equal(t, "https://e.com/first", target.FinalURL)
	assert.Equal(t, []string{"edges"}, target.Filters)
	assert.Equal(t, map[string]any{"c": "ok"}, target.Vars)

	for _, name := range target.Filters {
		_, ok := cfg.Filter(name)
		assert.True(t, ok, "filter %q must be defined", name)
	}
}

func TestValidate_TargetFieldTypes(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"filters not array", `{"final_url":"u","filters":"a"}`, "filters of t1 must be an array of strings"},
		{"filters non-string", `{"final_url":"u","filters":[1]}`, "filters of t1 must be an array of strings"},
		{"tracking not array", `{"final_url":"u","tracking_urls":"a"}`, "tracking_urls of t1 must be an array of strings"},
		{"tracking non-string", `{"final_url":"u","tracking_urls":[{}]}`, "tracking_urls of t1 must be an array of strings"},
		{"vars not object", `{"final_url":"u","vars":[]}`, "vars of t1 must be an object"},
		{"vars nested object", `{"final_url":"u","vars":{"a":{"b":1}}}`, "variable 'a' of t1"},
		{"vars nested array", `{"final_url":"u","vars":{"a":[[1]]}}`, "variable 'a' of t1"},
		{"vars null", `{"final_url":"u","vars":{"a":null}}`, "variable 'a' of t1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate([]byte(`{"targets":{"t1":` + tt.target + `}}`))
			requireValidationError(t, err, tt.want)
		})
	}
}

// ---------------------------------------------------------------------------
// Filters
// ---------------------------------------------------------------------------

func TestValidate_FilterSpecs(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want string
	}{
		{"not object", `"clickDelay"`, "filter specification 'f' is malformed"},
		{"missing type", `{"delay":5}`, "'' is not a known filter type"},
		{"unknown type", `{"type":"doubleClick"}`, "'doubleClick' is not a known filter type"},
		{"wrong tag case", `{"type":"CLICK_DELAY","delay":5}`, "'CLICK_DELAY' is not a known filter type"},
		{"delay missing", `{"type":"clickDelay"}`, "delay of filter 'f'"},
		{"delay zero", `{"type":"clickDelay","delay":0}`, "delay of filter 'f'"},
		{"delay negative", `{"type":"clickDelay","delay":-5}`, "delay of filter 'f'"},
		{"delay string", `{"type":"clickDelay","delay":"1000"}`, "delay of filter 'f'"},
		{"negative bound", `{"type":"clickLocation","top":-1}`, "top of filter 'f'"},
		{"string bound", `{"type":"clickLocation","left":"5"}`, "left of filter 'f'"},
		{"selector type", `{"type":"clickLocation","selector":7}`, "selector of filter 'f'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate([]byte(`{"targets":{},"filters":{"f":` + tt.spec + `}}`))
			requireValidationError(t, err, tt.want)
		})
	}
}

func TestValidate_FiltersNotObject(t *testing.T) {
	_, err := Validate([]byte(`{"targets":{},"filters":["a"]}`))
	requireValidationError(t, err, "'filters' must be an object")
}

func TestValidate_FiltersCheckedBeforeTargets(t *testing.T) {
	_, err := Validate([]byte(`{"filters":{"f":{"type":"bogus"}}}`))
	requireValidationError(t, err, "'bogus' is not a known filter type")
}

func TestValidate_LocationBoundsDefaultToZero(t *testing.T) {
	cfg, err := Validate([]byte(`{"targets":{},"filters":{"f":{"type":"clickLocation","bottom":12.5}}}`))
	require.NoError(t, err)

	spec, ok := cfg.Filter("f")
	require.True(t, ok)
	assert.Equal(t, filter.LocationSpec{Bottom: 12.5}, spec)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "targets", Msg: "'targets' must be an object"}
	assert.Equal(t, "invalid exit config: 'targets' must be an object", err.Error())
}
