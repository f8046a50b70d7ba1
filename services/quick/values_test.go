package quick

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionChecked(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "array", body: `["b","a","b"]`, want: []string{"b", "a"}},
		{name: "array skips non strings", body: `["a",1,true,null]`, want: []string{"a"}},
		{name: "map keeps order", body: `{"z":true,"a":true,"m":true}`, want: []string{"z", "a", "m"}},
		{name: "map unchecked values", body: `{"a":false,"b":0,"c":"x","d":null,"e":true}`, want: []string{"e"}},
		{name: "map value repeats key", body: `{"a":"a","b":"b"}`, want: []string{"a", "b"}},
		{name: "null", body: `null`, want: []string{}},
		{name: "empty map", body: `{}`, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Selection
			require.NoError(t, json.Unmarshal([]byte(tt.body), &s))
			assert.Equal(t, tt.want, s.Checked())
		})
	}

	var s Selection
	assert.Error(t, json.Unmarshal([]byte(`"a"`), &s))
}

func TestNumberWholeNonNegative(t *testing.T) {
	tests := []struct {
		body string
		want int64
		msg  string
	}{
		{body: `12`, want: 12},
		{body: `"12"`, want: 12},
		{body: `12.0`, want: 12},
		{body: `0`, want: 0},
		{body: `null`, msg: "is required"},
		{body: `""`, msg: "is required"},
		{body: `-1`, msg: "must be at least 0"},
		{body: `-0.5`, msg: "must be at least 0"},
		{body: `1.5`, msg: "must be a whole number"},
		{body: `9223372036854775807`, want: math.MaxInt64},
		{body: `9223372036854775808`, msg: "is too large"},
		{body: `"9223372036854775808"`, msg: "is too large"},
		{body: `1e19`, msg: "is too large"},
		{body: `-9223372036854775809`, msg: "must be at least 0"},
		{body: `"abc"`, msg: "must be a number"},
		{body: `true`, msg: "must be a number"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.body), &n))
			got, msg := n.wholeNonNegative()
			assert.Equal(t, tt.msg, msg)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateValueResolve(t *testing.T) {
	nyc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	want := time.Date(2024, 5, 1, 11, 30, 0, 0, time.UTC)

	for _, body := range []string{
		`"2024-05-01T11:30:00Z"`,
		`"2024-05-01T07:30:00-04:00"`,
		`"2024-05-01 07:30"`,
		`"2024-05-01T07:30:00"`,
		`{"date":"2024-05-01","time":"07:30:00"}`,
	} {
		t.Run(body, func(t *testing.T) {
			var d DateValue
			require.NoError(t, json.Unmarshal([]byte(body), &d))
			got, err := d.resolve(nyc)
			require.NoError(t, err)
			assert.True(t, got.Equal(want), "got %s", got)
		})
	}

	var d DateValue
	require.NoError(t, json.Unmarshal([]byte(`{"time":"07:30"}`), &d))
	_, err = d.resolve(nyc)
	assert.EqualError(t, err, "date part is required")
}

func TestNotesValue(t *testing.T) {
	var v Values
	require.NoError(t, json.Unmarshal([]byte(`{"notes":"  "}`), &v))
	assert.Nil(t, v.Notes.notes())

	require.NoError(t, json.Unmarshal([]byte(`{"notes":{"value":"<p>hi</p>","format":"basic_html"}}`), &v))
	assert.Equal(t, &Notes{Value: "<p>hi</p>", Format: "basic_html"}, v.Notes.notes())

	require.NoError(t, json.Unmarshal([]byte(`{"notes":"plain"}`), &v))
	assert.Equal(t, &Notes{Value: "plain", Format: DefaultTextFormat}, v.Notes.notes())
}
