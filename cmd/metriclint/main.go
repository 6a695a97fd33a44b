// Command metriclint runs the companion lint service: it accepts exposition
// text over PUT /lint, runs promlint over it, and answers with a JSON verdict
// the gateway's lint client understands.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/testutil/promlint"
)

type lintResponse struct {
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	Problems  []problemDetail `json:"problems,omitempty"`
	ErrorText string          `json:"error,omitempty"`
}

type problemDetail struct {
	Metric string `json:"metric"`
	Text   string `json:"text"`
}

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	flag.Parse()

	http.HandleFunc("/lint", handleLint)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Starting metrics linter server on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func handleLint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed. Use PUT.", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	w.Header().Set("Content-Type", "application/json")

	metricsText := string(body)
	if strings.TrimSpace(metricsText) == "" {
		writeVerdict(w, http.StatusBadRequest, lintResponse{
			Status:  "error",
			Message: "No input provided. Please send metrics in the request body.",
		})
		return
	}

	linter := promlint.New(strings.NewReader(metricsText + "\n"))
	problems, err := linter.Lint()
	if err != nil {
		writeVerdict(w, http.StatusBadRequest, lintResponse{
			Status:    "error",
			Message:   "Failed to parse metrics",
			ErrorText: err.Error(),
		})
		return
	}

	if len(problems) == 0 {
		writeVerdict(w, http.StatusOK, lintResponse{
			Status:  "success",
			Message: "Input has been parsed successfully. No issues found.",
		})
		return
	}

	resp := lintResponse{
		Status:   "warning",
		Message:  "The input can be parsed but there are linting issues",
		Problems: make([]problemDetail, 0, len(problems)),
	}
	for _, p := range problems {
		resp.Problems = append(resp.Problems, problemDetail{Metric: p.Metric, Text: p.Text})
	}
	writeVerdict(w, http.StatusOK, resp)
}

func writeVerdict(w http.ResponseWriter, status int, resp lintResponse) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("failed to encode lint response: %v", err)
	}
}
