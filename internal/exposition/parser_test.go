package exposition

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExposition = `# HELP sample_requests_total Total number of requests processed
# TYPE sample_requests_total counter
sample_requests_total{userid="example_user",method="GET",endpoint="/api/query"} 3
# HELP sample_cpu_usage_percent Current CPU usage in percent
# TYPE sample_cpu_usage_percent gauge
sample_cpu_usage_percent 42.5
# HELP sample_request_duration_seconds Request duration in seconds
# TYPE sample_request_duration_seconds histogram
sample_request_duration_seconds_bucket{endpoint="/api/query",le="0.5"} 1
sample_request_duration_seconds_bucket{endpoint="/api/query",le="+Inf"} 2
sample_request_duration_seconds_sum{endpoint="/api/query"} 1.7
sample_request_duration_seconds_count{endpoint="/api/query"} 2
# HELP sample_request_latency_seconds Request latency in seconds
# TYPE sample_request_latency_seconds summary
sample_request_latency_seconds{quantile="0.5"} 0.3
sample_request_latency_seconds_sum 0.9
sample_request_latency_seconds_count 3
`

func TestParse_FamilyGrouping(t *testing.T) {
	families, err := Parse(sampleExposition)
	require.NoError(t, err)
	require.Len(t, families, 4)

	counter := families["sample_requests_total"]
	require.NotNil(t, counter)
	assert.Equal(t, TypeCounter, counter.Type)
	assert.Equal(t, "Total number of requests processed", counter.Help)
	require.Len(t, counter.Samples, 1)
	assert.Equal(t, 3.0, counter.Samples[0].Value)
	assert.Equal(t, map[string]string{
		"userid":   "example_user",
		"method":   "GET",
		"endpoint": "/api/query",
	}, counter.Samples[0].Labels)

	gauge := families["sample_cpu_usage_percent"]
	require.NotNil(t, gauge)
	assert.Equal(t, TypeGauge, gauge.Type)
	require.Len(t, gauge.Samples, 1)
	assert.Equal(t, 42.5, gauge.Samples[0].Value)

	// Histogram suffix series fold into the base family.
	hist := families["sample_request_duration_seconds"]
	require.NotNil(t, hist)
	assert.Equal(t, TypeHistogram, hist.Type)
	assert.Len(t, hist.Samples, 4)

	summary := families["sample_request_latency_seconds"]
	require.NotNil(t, summary)
	assert.Equal(t, TypeSummary, summary.Type)
	assert.Len(t, summary.Samples, 3)
}

func TestParse_UntypedSamples(t *testing.T) {
	families, err := Parse("orphan_metric 7\n")
	require.NoError(t, err)

	fam := families["orphan_metric"]
	require.NotNil(t, fam)
	assert.Equal(t, TypeUntyped, fam.Type)
	require.Len(t, fam.Samples, 1)
	assert.Equal(t, 7.0, fam.Samples[0].Value)
}

func TestParse_CounterTotalSuffix(t *testing.T) {
	text := "# TYPE http_requests counter\nhttp_requests_total 10\n"
	families, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, families, 1)

	fam := families["http_requests"]
	require.NotNil(t, fam)
	require.Len(t, fam.Samples, 1)
	assert.Equal(t, "http_requests_total", fam.Samples[0].Name)
}

func TestParse_LabelEscapes(t *testing.T) {
	text := `weird{path="C:\\temp",msg="say \"hi\"",multi="a\nb"} 1` + "\n"
	families, err := Parse(text)
	require.NoError(t, err)

	fam := families["weird"]
	require.NotNil(t, fam)
	require.Len(t, fam.Samples, 1)
	assert.Equal(t, map[string]string{
		"path":  `C:\temp`,
		"msg":   `say "hi"`,
		"multi": "a\nb",
	}, fam.Samples[0].Labels)
}

func TestParse_LabelOrderIndependent(t *testing.T) {
	a, err := Parse(`m{x="1",y="2"} 5` + "\n")
	require.NoError(t, err)
	b, err := Parse(`m{y="2",x="1"} 5` + "\n")
	require.NoError(t, err)

	assert.Equal(t, a["m"].Samples[0].Labels, b["m"].Samples[0].Labels)
}

func TestParse_Timestamps(t *testing.T) {
	families, err := Parse("foo 1 1700000000000\nbar 2\n")
	require.NoError(t, err)

	foo := families["foo"].Samples[0]
	assert.True(t, foo.HasTimestamp)
	assert.Equal(t, int64(1700000000000), foo.Timestamp)

	bar := families["bar"].Samples[0]
	assert.False(t, bar.HasTimestamp)
}

func TestParse_EmptyBraces(t *testing.T) {
	families, err := Parse("foo{} 1\n")
	require.NoError(t, err)
	require.Len(t, families["foo"].Samples, 1)
	assert.Empty(t, families["foo"].Samples[0].Labels)
}

func TestParse_SpecialValues(t *testing.T) {
	families, err := Parse("up +Inf\ndown -Inf\nnope NaN\n")
	require.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestParse_EmptyInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty string", text: ""},
		{name: "blank lines", text: "\n\n\n"},
		{name: "comments only", text: "# just a note\n# EOF\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			families, err := Parse(tt.text)
			require.NoError(t, err, "zero families is not a parse error")
			assert.NotNil(t, families)
			assert.Empty(t, families)
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "name starts with digit", text: "1bad 1\n"},
		{name: "missing value", text: "foo\n"},
		{name: "non-numeric value", text: "foo bar\n"},
		{name: "unterminated label block", text: `foo{l="x" 1` + "\n"},
		{name: "unquoted label value", text: "foo{l=x} 1\n"},
		{name: "trailing garbage", text: "foo 1 2 3\n"},
		{name: "bad timestamp", text: "foo 1 later\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, 1, syntaxErr.LineNum)
			assert.Contains(t, syntaxErr.Error(), fmt.Sprintf("%q", syntaxErr.Line), "error should name the offending line")
		})
	}
}

func TestParse_ErrorNamesCorrectLine(t *testing.T) {
	text := "good_metric 1\n\n# TYPE other gauge\nbroken{ 2\n"
	_, err := Parse(text)
	require.Error(t, err)

	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 4, syntaxErr.LineNum)
}

func TestParse_Deterministic(t *testing.T) {
	first, err := Parse(sampleExposition)
	require.NoError(t, err)
	second, err := Parse(sampleExposition)
	require.NoError(t, err)

	assert.True(t, reflect.DeepEqual(first, second), "parsing the same text twice must yield identical families")
}
