// Package engine routes a scrape request to the backend selected by its
// strategy and composes the backend output with the cleaner.
package engine

import "context"

// Fetcher retrieves a URL over plain HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Automator runs the browser-automated strategy end to end, including
// normalization or cleaning of the rendered page.
type Automator interface {
	Run(ctx context.Context, url, label string, clean bool) (string, error)
}
