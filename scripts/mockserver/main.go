// Command mockserver is a local stand-in for an OpenAI-style completions
// endpoint, used to exercise tokenfire without real GPU capacity. It can
// simulate latency and random failures.
//
// Example:
//
//	go run ./scripts/mockserver -port 8080 -latency 50ms -fail-rate 0.1
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

type completionRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
	Stream    bool   `json:"stream"`
}

func main() {
	port := flag.Int("port", 8080, "Listening port")
	latency := flag.Duration("latency", 0, "Artificial delay before responding")
	jitter := flag.Duration("jitter", 0, "Extra random delay in [0, jitter)")
	failRate := flag.Float64("fail-rate", 0, "Fraction of requests answered with HTTP 500")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/completions", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(req.Body)
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		var cr completionRequest
		if err := json.Unmarshal(body, &cr); err != nil || cr.Model == "" || cr.Prompt == "" {
			http.Error(w, `{"error":"invalid completion request"}`, http.StatusBadRequest)
			return
		}

		delay := *latency
		if *jitter > 0 {
			delay += time.Duration(rand.Int63n(int64(*jitter)))
		}
		if delay > 0 {
			time.Sleep(delay)
		}

		if *failRate > 0 && rand.Float64() < *failRate {
			http.Error(w, `{"error":"simulated overload"}`, http.StatusInternalServerError)
			return
		}

		tokens := cr.MaxTokens
		if tokens <= 0 {
			tokens = 16
		}
		text := strings.Repeat("tok ", tokens)
		respondJSON(w, map[string]any{
			"id":      fmt.Sprintf("cmpl-%d", rand.Int63()),
			"object":  "text_completion",
			"created": time.Now().Unix(),
			"model":   cr.Model,
			"choices": []map[string]any{
				{"text": strings.TrimSpace(text), "index": 0, "finish_reason": "length"},
			},
			"usage": map[string]any{
				"prompt_tokens":     len(strings.Fields(cr.Prompt)),
				"completion_tokens": tokens,
				"total_tokens":      tokens + len(strings.Fields(cr.Prompt)),
			},
		})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("mock completions server listening on %s (latency=%s fail-rate=%.2f)", addr, *latency, *failRate)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
