// Package main implements the ragctl CLI for operations against the ragd server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the ragd HTTP server
	serverURL string
	// configPath is the YAML config file used by commands that talk to
	// storage directly instead of going through the server
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "CLI for ragd server operations",
	Long: `ragctl is a command-line interface for the ragd retrieval service.
It provides commands for ingesting documents, asking questions, and checking
server health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "ragd server URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(healthCmd)
}

// askCmd sends a question to the server
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question over the ingested dataset",
	Long: `Ask a question answered from the ingested dataset.

Examples:
  # Ask a question
  ragctl ask "What is the return policy?"

  # Use a different server
  ragctl ask --server http://localhost:8080 "What is the return policy?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check ragd server health",
	RunE:  runHealth,
}

// AskRequest matches internal/http/types.go AskRequest
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse matches internal/http/types.go AskResponse
type AskResponse struct {
	Answer  string   `json:"answer"`
	Chunks  []string `json:"chunks"`
	Blocked bool     `json:"blocked"`
}

// HealthResponse matches internal/http/types.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// runAsk handles the ask command
func runAsk(cmd *cobra.Command, args []string) error {
	reqJSON, err := json.Marshal(AskRequest{Query: args[0]})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/ask", serverURL)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: 120 * time.Second,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var askResp AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&askResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Println(askResp.Answer)

	if len(askResp.Chunks) > 0 {
		fmt.Fprintf(os.Stderr, "\n[ragctl] Answer grounded on %d chunk(s)\n", len(askResp.Chunks))
	}

	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	return nil
}
