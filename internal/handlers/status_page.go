package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/devYaoYH/prometheus-proxy-gateway/internal/logging"
)

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Prometheus Metrics Proxy</title>
    <style>
        body { font-family: sans-serif; max-width: 1100px; margin: 0 auto; padding: 20px; color: #333; }
        h1, h2 { color: #2c3e50; }
        .container { background: #f9f9f9; border-radius: 5px; padding: 20px; margin-bottom: 20px; }
        .label { font-weight: bold; color: #2980b9; }
        .value { font-family: monospace; background: #f1f1f1; padding: 5px; border-radius: 3px; white-space: pre-wrap; }
        .metrics-data { max-height: 400px; overflow-y: auto; border: 1px solid #ddd; padding: 10px; background: #f5f5f5; white-space: pre-wrap; font-family: monospace; }
        .no-data { color: #7f8c8d; font-style: italic; }
        .status { padding: 5px 10px; border-radius: 3px; font-weight: bold; color: white; }
        .status-success { background: #27ae60; }
        .status-error { background: #e74c3c; }
        .timestamp { font-size: 14px; color: #7f8c8d; }
    </style>
</head>
<body>
    <h1>Prometheus Metrics Proxy</h1>
    {{if .Recorded}}<div class="timestamp">Last update: {{.Timestamp}}</div>{{end}}
    <div class="container">
        <h2>Latest Received Metrics</h2>
        {{if not .Recorded}}
        <p class="no-data">No metrics have been received yet. Use the /push_metrics endpoint to send data.</p>
        {{else}}
        <div><span class="label">Target URL:</span> <span class="value">{{.TargetURL}}</span></div>
        <div><span class="label">Method:</span> <span class="value">{{.Method}}</span></div>
        <div><span class="label">Headers:</span> <span class="value">{{.Headers}}</span></div>
        <div><span class="label">Raw Data (base64):</span> <span class="value">{{.RawData}}</span></div>
        <div class="label">Decoded Metrics Data:</div>
        <div class="metrics-data">{{.DecodedData}}</div>
        {{if .Result}}
        <div>
            <span class="label">Result:</span>
            <span class="status {{if .Result.Success}}status-success{{else}}status-error{{end}}">{{.Result.Status}}</span>
            {{if .Result.Message}}<div class="value">{{.Result.Message}}</div>{{end}}
        </div>
        {{end}}
        {{end}}
    </div>
    <form action="/" method="get"><button type="submit">Refresh Page</button></form>
</body>
</html>
`))

type statusView struct {
	Recorded    bool
	Timestamp   string
	TargetURL   string
	Method      string
	Headers     string
	RawData     string
	DecodedData string
	Result      *statusResult
}

type statusResult struct {
	Success bool
	Status  string
	Message string
}

// Index renders the current transaction tracker contents.
func (h *PushHandler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	rec := h.tracker.Snapshot()

	view := statusView{
		Recorded:    rec.Recorded(),
		TargetURL:   rec.TargetURL,
		Method:      rec.Method,
		RawData:     rec.RawData,
		DecodedData: rec.DecodedData,
	}
	if rec.Recorded() {
		view.Timestamp = rec.Timestamp.Format("2006-01-02 15:04:05")
		if headers, err := json.MarshalIndent(rec.Headers, "", "  "); err == nil {
			view.Headers = string(headers)
		}
	}
	if rec.Result != nil {
		view.Result = &statusResult{
			Success: rec.Result.Success,
			Status:  rec.Result.Status,
			Message: rec.Result.Message,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusTemplate.Execute(w, view); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render status page", logging.Error(err))
	}
}
