package exposition

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports a sample line that cannot be tokenized into the
// exposition grammar. It names the offending line.
type SyntaxError struct {
	LineNum int
	Line    string
	Reason  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("exposition syntax error at line %d (%q): %s", e.LineNum, e.Line, e.Reason)
}

// Parse tokenizes text as a sequence of metric family blocks and returns the
// families keyed by name. Samples without a preceding # TYPE declaration are
// grouped under an untyped family named after the sample. Blank lines and
// unrecognized comment lines are ignored. A syntactically valid text with zero
// samples yields an empty, non-nil map and no error.
func Parse(text string) (map[string]*MetricFamily, error) {
	families := make(map[string]*MetricFamily)

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			parseComment(line, families)
			continue
		}

		sample, err := parseSample(line)
		if err != nil {
			return nil, &SyntaxError{LineNum: i + 1, Line: line, Reason: err.Error()}
		}

		fam := familyFor(families, sample.Name)
		fam.Samples = append(fam.Samples, *sample)
	}

	return families, nil
}

// parseComment handles # HELP, # TYPE, and # UNIT lines. Anything else after
// the hash (including the OpenMetrics # EOF marker) is an ordinary comment and
// is skipped.
func parseComment(line string, families map[string]*MetricFamily) {
	fields := strings.SplitN(line, " ", 4)
	if len(fields) < 3 || fields[0] != "#" {
		return
	}

	keyword, name := fields[1], fields[2]
	rest := ""
	if len(fields) == 4 {
		rest = fields[3]
	}

	switch keyword {
	case "HELP":
		declareFamily(families, name).Help = unescapeHelp(rest)
	case "TYPE":
		fam := declareFamily(families, name)
		switch MetricType(strings.ToLower(rest)) {
		case TypeCounter, TypeGauge, TypeHistogram, TypeSummary:
			fam.Type = MetricType(strings.ToLower(rest))
		default:
			fam.Type = TypeUntyped
		}
	case "UNIT":
		declareFamily(families, name).Unit = rest
	}
}

// declareFamily returns the family registered under name, creating an untyped
// shell if it has not been declared yet.
func declareFamily(families map[string]*MetricFamily, name string) *MetricFamily {
	if fam, ok := families[name]; ok {
		return fam
	}
	fam := &MetricFamily{Name: name, Type: TypeUntyped}
	families[name] = fam
	return fam
}

// familyFor resolves the family a sample belongs to. The metric name is first
// tried verbatim, then with the type-specific suffixes stripped so that
// histogram and summary series (_bucket, _count, _sum) and OpenMetrics counter
// series (_total, _created) fold into their declared base family. A sample
// that matches no declaration gets its own untyped family.
func familyFor(families map[string]*MetricFamily, name string) *MetricFamily {
	if fam, ok := families[name]; ok {
		return fam
	}

	for _, suffix := range []string{"_bucket", "_count", "_sum", "_total", "_created"} {
		base, ok := strings.CutSuffix(name, suffix)
		if !ok {
			continue
		}
		fam, exists := families[base]
		if !exists {
			continue
		}
		switch {
		case fam.Type == TypeHistogram && (suffix == "_bucket" || suffix == "_count" || suffix == "_sum" || suffix == "_created"),
			fam.Type == TypeSummary && (suffix == "_count" || suffix == "_sum" || suffix == "_created"),
			fam.Type == TypeCounter && (suffix == "_total" || suffix == "_created"):
			return fam
		}
	}

	return declareFamily(families, name)
}

// parseSample tokenizes one sample line:
//
//	metric_name{label="value",...} value [timestamp]
func parseSample(line string) (*Sample, error) {
	nameEnd := scanMetricName(line)
	if nameEnd == 0 {
		return nil, fmt.Errorf("invalid metric name")
	}

	sample := &Sample{
		Name:   line[:nameEnd],
		Labels: map[string]string{},
	}
	rest := line[nameEnd:]

	if strings.HasPrefix(rest, "{") {
		body, remainder, err := splitLabelBlock(rest)
		if err != nil {
			return nil, err
		}
		if err := parseLabels(body, sample.Labels); err != nil {
			return nil, err
		}
		rest = remainder
	}

	fields := strings.Fields(rest)
	switch len(fields) {
	case 1:
	case 2:
		ts, err := parseTimestamp(fields[1])
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q", fields[1])
		}
		sample.Timestamp = ts
		sample.HasTimestamp = true
	case 0:
		return nil, fmt.Errorf("missing sample value")
	default:
		return nil, fmt.Errorf("trailing garbage after timestamp")
	}

	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid sample value %q", fields[0])
	}
	sample.Value = value

	return sample, nil
}

// scanMetricName returns the length of the leading metric name token, which
// must match [a-zA-Z_:][a-zA-Z0-9_:]*.
func scanMetricName(line string) int {
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == ':':
		case c >= '0' && c <= '9':
			if i == 0 {
				return 0
			}
		default:
			return i
		}
	}
	return len(line)
}

// splitLabelBlock splits `{...} rest` into the brace body and the remainder,
// honoring quoted label values so a '}' inside a value does not terminate the
// block.
func splitLabelBlock(s string) (body, rest string, err error) {
	inQuotes := false
	escaped := false
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inQuotes:
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
		case c == '}' && !inQuotes:
			return s[1:i], s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("unterminated label block")
}

// parseLabels parses the inside of a label block into dst. Label values are
// quoted strings with \" \\ and \n escapes; a trailing comma is tolerated.
func parseLabels(body string, dst map[string]string) error {
	rest := strings.TrimSpace(body)
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			return fmt.Errorf("malformed label pair %q", rest)
		}
		name := strings.TrimSpace(rest[:eq])
		if !validLabelName(name) {
			return fmt.Errorf("invalid label name %q", name)
		}

		rest = strings.TrimSpace(rest[eq+1:])
		if !strings.HasPrefix(rest, `"`) {
			return fmt.Errorf("label %q value is not quoted", name)
		}
		value, remainder, err := parseQuoted(rest)
		if err != nil {
			return fmt.Errorf("label %q: %w", name, err)
		}
		dst[name] = value

		rest = strings.TrimSpace(remainder)
		if strings.HasPrefix(rest, ",") {
			rest = strings.TrimSpace(rest[1:])
		} else if rest != "" {
			return fmt.Errorf("expected ',' between labels, got %q", rest)
		}
	}
	return nil
}

// parseQuoted consumes a leading quoted string from s, resolving the standard
// exposition escapes, and returns the decoded value plus the remainder.
func parseQuoted(s string) (value, rest string, err error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 >= len(s) {
				return "", "", fmt.Errorf("dangling escape")
			}
			i++
			switch s[i] {
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case 'n':
				b.WriteByte('\n')
			default:
				return "", "", fmt.Errorf("unknown escape \\%c", s[i])
			}
		case '"':
			return b.String(), s[i+1:], nil
		default:
			b.WriteByte(c)
		}
	}
	return "", "", fmt.Errorf("unterminated quoted string")
}

func validLabelName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// parseTimestamp accepts the classic integer millisecond timestamp and the
// OpenMetrics float seconds form.
func parseTimestamp(s string) (int64, error) {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ts, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f * 1000), nil
}

// unescapeHelp resolves the \\ and \n escapes allowed in HELP docstrings.
func unescapeHelp(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	r := strings.NewReplacer(`\\`, `\`, `\n`, "\n")
	return r.Replace(s)
}
