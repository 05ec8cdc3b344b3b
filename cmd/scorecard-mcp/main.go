// Command scorecard-mcp exposes the scorecard HTTP API as MCP tools over
// stdio.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scorecardRequest mirrors the scorecard API request model.
type scorecardRequest struct {
	URL           string `json:"url"`
	ManOfTheMatch string `json:"man_of_the_match,omitempty"`
	Format        string `json:"format,omitempty"`
}

// errorResponse mirrors the error envelope of the scorecard API.
type errorResponse struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// healthResponse mirrors GET /api/v1/health.
type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
	Browser struct {
		Connected      bool  `json:"connected"`
		ActiveSessions int   `json:"active_sessions"`
		Renders        int64 `json:"renders"`
	} `json:"browser"`
}

func main() {
	apiURL := strings.TrimRight(envOr("SCORECARD_API_URL", "http://127.0.0.1:8080"), "/")
	apiKey := os.Getenv("SCORECARD_API_KEY")
	outDir := envOr("SCORECARD_OUTPUT_DIR", os.TempDir())

	s := newServer(apiURL, apiKey, outDir)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(apiURL, apiKey, outDir string) *server.MCPServer {
	s := server.NewMCPServer(
		"scorecard",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	generateTool := mcp.NewTool("generate_scorecard",
		mcp.WithDescription("Build a one-page cricket match scorecard from a match page URL. Shows the top three batters and bowlers of each innings, the result and the man of the match. Text formats are returned inline; PDF is saved to disk and its path returned."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The match page URL (summary or scorecard page)"),
		),
		mcp.WithString("man_of_the_match",
			mcp.Description("Name to print as man of the match instead of the one on the page"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'markdown' (default), 'json' (canonical scorecard), 'html', or 'pdf' (saved to a file)"),
			mcp.Enum("markdown", "json", "html", "pdf"),
		),
	)
	s.AddTool(generateTool, handleGenerate(apiURL, apiKey, outDir))

	healthTool := mcp.NewTool("scorecard_health",
		mcp.WithDescription("Check that the scorecard API is up and report the browser state."),
	)
	s.AddTool(healthTool, handleHealth(apiURL))

	return s
}

func handleGenerate(apiURL, apiKey, outDir string) server.ToolHandlerFunc {
	// Rendered fetches can take several navigation attempts.
	client := &http.Client{Timeout: 240 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := scorecardRequest{
			URL:           url,
			ManOfTheMatch: request.GetString("man_of_the_match", ""),
			Format:        request.GetString("format", "markdown"),
		}

		resp, body, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scorecard", reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if resp.StatusCode != http.StatusOK {
			var errResp errorResponse
			errMsg := fmt.Sprintf("scorecard failed with status %d", resp.StatusCode)
			if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", errResp.Error.Code, errResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		source := resp.Header.Get("X-Source-URL")

		if reqBody.Format == "pdf" {
			path, err := savePDF(outDir, resp.Header.Get("Content-Disposition"), body)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to save PDF: %v", err)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Scorecard PDF saved to %s\nSource: %s", path, source)), nil
		}

		result := ""
		if source != "" {
			result = fmt.Sprintf("Source: %s\n\n", source)
		}
		return mcp.NewToolResultText(result + string(body)), nil
	}
}

func handleHealth(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/api/v1/health", nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		resp, err := client.Do(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		var h healthResponse
		if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Status: %s\nVersion: %s\nUptime: %s\nBrowser connected: %t (active sessions %d, renders %d)",
			h.Status, h.Version, h.Uptime, h.Browser.Connected, h.Browser.ActiveSessions, h.Browser.Renders,
		)), nil
	}
}

// apiPost sends a POST request to the scorecard API and returns the
// response with its body already read.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) (*http.Response, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, respBody, nil
}

// savePDF writes data under dir using the attachment name the API sent,
// prefixed with a timestamp so repeated calls do not overwrite each other.
func savePDF(dir, disposition string, data []byte) (string, error) {
	name := "match_scorecard.pdf"
	if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
		name = filepath.Base(params["filename"])
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, time.Now().Format("20060102-150405")+"_"+name)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // report files are meant to be shared
		return "", err
	}
	return path, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
