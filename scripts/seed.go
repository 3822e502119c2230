// Seed script that loads the example scenarios into a running server.
// Run with: go run ./scripts/seed.go [examples/*.yaml]
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Harshitk-cp/truthkeeper/internal/config"
	"github.com/Harshitk-cp/truthkeeper/internal/scenario"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	baseURL := os.Getenv("TRUTHKEEPER_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", config.ServerPort())
	}

	files := os.Args[1:]
	if len(files) == 0 {
		var err error
		files, err = filepath.Glob("examples/*.yaml")
		if err != nil {
			log.Fatalf("Failed to list examples: %v", err)
		}
	}

	client := &http.Client{Timeout: 10 * time.Second}
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", path, err)
		}
		sc, err := scenario.Parse(raw)
		if err != nil {
			log.Fatalf("Invalid scenario %s: %v", path, err)
		}

		body, _ := json.Marshal(map[string]any{"kind": sc.Engine, "strict": sc.Strict})
		var ws struct {
			ID string `json:"id"`
		}
		if err := call(client, http.MethodPost, baseURL+"/v1/workspaces", "application/json", body, &ws); err != nil {
			log.Fatalf("Failed to create workspace for %s: %v", path, err)
		}

		var res struct {
			Passed bool `json:"passed"`
		}
		if err := call(client, http.MethodPost, baseURL+"/v1/workspaces/"+ws.ID+"/scenario", "application/yaml", raw, &res); err != nil {
			log.Fatalf("Failed to replay %s: %v", path, err)
		}

		fmt.Printf("%-28s workspace=%s passed=%t\n", filepath.Base(path), ws.ID, res.Passed)
	}

	fmt.Println()
	fmt.Println("===========================================")
	fmt.Println("Seed complete! Inspect a workspace with:")
	fmt.Printf("  curl %s/v1/workspaces/<id>\n", baseURL)
	fmt.Println("===========================================")
}

func call(client *http.Client, method, url, contentType string, body []byte, out any) error {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if key := config.APIKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
