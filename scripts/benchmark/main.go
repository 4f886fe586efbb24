package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "scrapekit API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per URL and variant for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

var testURLs = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"News", "www.bbc.com/news"},
}

// variant is one strategy/clean combination measured per URL.
type variant struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
	Clean    bool   `json:"clean"`
}

var variants = []variant{
	{"plain", "plain", false},
	{"parsed", "parsed", false},
	{"parsed+clean", "parsed", true},
}

// --- Request / Response types (mirrors models package) ---

type scrapeRequest struct {
	URL      string `json:"url"`
	Strategy string `json:"strategy"`
	Clean    bool   `json:"clean,omitempty"`
}

type scrapeResponse struct {
	Success bool         `json:"success"`
	Content string       `json:"content"`
	Timing  timingInfo   `json:"timing"`
	Error   *errorDetail `json:"error,omitempty"`
}

type timingInfo struct {
	TotalMs    int64 `json:"total_ms"`
	DispatchMs int64 `json:"dispatch_ms"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run           int    `json:"run"`
	TotalMs       int64  `json:"total_ms"`
	DispatchMs    int64  `json:"dispatch_ms"`
	ContentLength int    `json:"content_length"`
	Success       bool   `json:"success"`
	ErrorCode     string `json:"error_code,omitempty"`
	Error         string `json:"error,omitempty"`
}

type averages struct {
	DispatchMs    float64 `json:"dispatch_ms"`
	ContentLength float64 `json:"content_length"`
	SuccessRate   float64 `json:"success_rate"`
}

type caseResult struct {
	URL      string      `json:"url"`
	Label    string      `json:"label"`
	Variant  variant     `json:"variant"`
	Runs     []runResult `json:"runs"`
	Averages *averages   `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string       `json:"timestamp"`
	APIURL     string       `json:"api_url"`
	RunsPerURL int          `json:"runs_per_case"`
	Results    []caseResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== scrapekit strategy benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/case: %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure scrapekit is running (scrapekit serve)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	client := &http.Client{Timeout: 30 * time.Second}
	for _, t := range testURLs {
		for _, v := range variants {
			fmt.Printf("Benchmarking [%s/%s] %s ...\n", t.Label, v.Name, t.URL)
			cr := caseResult{URL: t.URL, Label: t.Label, Variant: v}

			for i := 1; i <= *runs; i++ {
				rr := benchmarkCase(client, t.URL, v, i)
				if rr.Success {
					fmt.Printf("  Run %d/%d  OK  %dms  %d bytes\n", i, *runs, rr.DispatchMs, rr.ContentLength)
				} else {
					fmt.Printf("  Run %d/%d  FAILED [%s] %s\n", i, *runs, rr.ErrorCode, rr.Error)
				}
				cr.Runs = append(cr.Runs, rr)
			}

			cr.Averages = computeAverages(cr.Runs)
			report.Results = append(report.Results, cr)
		}
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkCase(client *http.Client, url string, v variant, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(scrapeRequest{URL: url, Strategy: v.Strategy, Clean: v.Clean})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/scrape", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var sr scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = sr.Success
	rr.TotalMs = sr.Timing.TotalMs
	rr.DispatchMs = sr.Timing.DispatchMs
	rr.ContentLength = len(sr.Content)
	if sr.Error != nil {
		rr.ErrorCode = sr.Error.Code
		rr.Error = sr.Error.Message
	}
	return rr
}

func computeAverages(runs []runResult) *averages {
	var successCount int
	var avg averages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.DispatchMs += float64(r.DispatchMs)
		avg.ContentLength += float64(r.ContentLength)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.DispatchMs /= n
	avg.ContentLength /= n
	avg.SuccessRate = n / float64(len(runs)) * 100
	return &avg
}

func printTable(results []caseResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tVariant\tAvg Dispatch\tContent Len\tSuccess\n")
	fmt.Fprintf(w, "───\t───────\t────────────\t───────────\t───────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\t%s\tFAILED\t-\t0%%\n", truncateURL(r.URL, 40), r.Variant.Name)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%dms\t%s\t%.0f%%\n",
			truncateURL(r.URL, 40),
			r.Variant.Name,
			int64(r.Averages.DispatchMs),
			formatInt(int(r.Averages.ContentLength)),
			r.Averages.SuccessRate,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func formatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
