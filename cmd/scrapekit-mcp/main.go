package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the scrapekit API request model.
type scrapeRequest struct {
	URL         string `json:"url"`
	Strategy    string `json:"strategy"`
	Clean       bool   `json:"clean,omitempty"`
	TargetLabel string `json:"target_label,omitempty"`
}

// apiError mirrors the scrapekit API error detail.
type apiError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Step       string `json:"step"`
}

func (e *apiError) String() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (upstream HTTP %d)", e.StatusCode)
	}
	return msg
}

// scrapeResponse mirrors the scrapekit API response model.
type scrapeResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Strategy string `json:"strategy"`
	Content  string `json:"content"`
	Metadata struct {
		Title    string `json:"title"`
		SiteName string `json:"site_name"`
	} `json:"metadata"`
	Recorded bool      `json:"recorded"`
	Error    *apiError `json:"error"`
}

// historyResponse mirrors the scrapekit history API response.
type historyResponse struct {
	Success bool `json:"success"`
	Records []struct {
		URL      string `json:"url"`
		Strategy string `json:"strategy"`
		Content  string `json:"content"`
		Date     string `json:"date"`
	} `json:"records"`
	Error *apiError `json:"error"`
}

func main() {
	apiURL := os.Getenv("SCRAPEKIT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Optional: without a key, scrapes are anonymous and history is unavailable.
	apiKey := os.Getenv("SCRAPEKIT_API_KEY")

	s := server.NewMCPServer(
		"scrapekit",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeURLTool := mcp.NewTool("scrape_url",
		mcp.WithDescription("Fetch a web page and return raw markup, prettified markup, or a cleaned readable outline. The 'browser' strategy drives a real browser: it searches the site for target_label and opens the matching result."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape. A bare www. host is accepted."),
		),
		mcp.WithString("strategy",
			mcp.Description("Retrieval strategy: 'plain' (default, raw HTTP body), 'parsed' (HTTP + HTML parsing), or 'browser' (browser automation)"),
			mcp.Enum("plain", "parsed", "browser"),
		),
		mcp.WithBoolean("clean",
			mcp.Description("Return the cleaned readable outline instead of prettified markup (parsed and browser strategies)"),
		),
		mcp.WithString("target_label",
			mcp.Description("Search term for the browser strategy. Required when strategy is 'browser'."),
		),
	)
	s.AddTool(scrapeURLTool, handleScrapeURL(apiURL, apiKey))

	historyTool := mcp.NewTool("scrape_history",
		mcp.WithDescription("List the scrape history of the configured API key, newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries to return (default: 10)"),
		),
	)
	s.AddTool(historyTool, handleHistory(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a request to the scrapekit API and returns the response body.
func apiDo(ctx context.Context, client *http.Client, method, url, apiKey string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleScrapeURL(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := scrapeRequest{
			URL:         url,
			Strategy:    request.GetString("strategy", "plain"),
			Clean:       request.GetBool("clean", false),
			TargetLabel: request.GetString("target_label", ""),
		}

		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL+"/api/v1/scrape", apiKey, reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var scrapeResp scrapeResponse
		if err := json.Unmarshal(respBody, &scrapeResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !scrapeResp.Success {
			errMsg := "scrape failed"
			if scrapeResp.Error != nil {
				errMsg = scrapeResp.Error.String()
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Source: %s\nStrategy: %s\n", scrapeResp.URL, scrapeResp.Strategy)
		if scrapeResp.Metadata.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", scrapeResp.Metadata.Title)
		}
		b.WriteString("\n")
		b.WriteString(scrapeResp.Content)

		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleHistory(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if apiKey == "" {
			return mcp.NewToolResultError("SCRAPEKIT_API_KEY is required for scrape_history"), nil
		}
		limit := request.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}

		respBody, err := apiDo(ctx, client, http.MethodGet, apiURL+"/api/v1/history", apiKey, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var histResp historyResponse
		if err := json.Unmarshal(respBody, &histResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !histResp.Success {
			errMsg := "history request failed"
			if histResp.Error != nil {
				errMsg = histResp.Error.String()
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		if len(histResp.Records) == 0 {
			return mcp.NewToolResultText("No scrape history."), nil
		}

		var b strings.Builder
		for i, r := range histResp.Records {
			if i >= limit {
				break
			}
			fmt.Fprintf(&b, "%d. %s  [%s]  %s  (%d bytes)\n", i+1, r.Date, r.Strategy, r.URL, len(r.Content))
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}
