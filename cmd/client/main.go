package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Small exerciser for the completion endpoints. Not part of the service;
// useful for manual smoke checks against a running server.

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	prompt := flag.String("prompt", "If a train travels 300 km in 2 hours, how far does it travel in 1 hour?", "question to ask")
	samples := flag.Int("samples", 3, "number of self-consistency samples")
	steps := flag.Int("steps", 2, "number of chain-of-thought steps per sample")
	model := flag.String("model", "fast", "model tier: fast or slow")
	chat := flag.Bool("chat", false, "use the chat-style endpoint")
	flag.Parse()

	var endpoint string
	var payload map[string]interface{}

	if *chat {
		endpoint = "/v1/chat/completions"
		payload = map[string]interface{}{
			"messages": []map[string]string{
				{"role": "user", "content": *prompt},
			},
			"num_self_consistency": *samples,
			"num_cot":              *steps,
			"model":                *model,
		}
	} else {
		endpoint = "/v1/completions"
		payload = map[string]interface{}{
			"prompt":               *prompt,
			"num_self_consistency": *samples,
			"num_cot":              *steps,
			"model":                *model,
		}
	}

	body, err := sendRequest(*baseURL+endpoint, payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}

func sendRequest(url string, payload map[string]interface{}) ([]byte, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(jsonBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
