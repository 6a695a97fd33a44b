package logging

import "log/slog"

// Common field names for consistent logging across the gateway.
const (
	FieldService   = "service"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldTargetURL = "target_url"
	FieldStage     = "stage"
	FieldBytes     = "bytes"
	FieldFamilies  = "families"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// TargetURL returns a slog attribute for the forwarding destination.
func TargetURL(url string) slog.Attr {
	return slog.String(FieldTargetURL, url)
}

// Stage returns a slog attribute for the pipeline stage name.
func Stage(name string) slog.Attr {
	return slog.String(FieldStage, name)
}

// Bytes returns a slog attribute for a payload size.
func Bytes(n int) slog.Attr {
	return slog.Int(FieldBytes, n)
}

// Families returns a slog attribute for a parsed metric family count.
func Families(n int) slog.Attr {
	return slog.Int(FieldFamilies, n)
}
