// Package main provides the entry point for the OpenVC investor scraper CLI.
//
// Usage:
//
//	openvc-scraper crawl --max-pages 5
//	openvc-scraper export --output data/investors.json
//	openvc-scraper copy-data
//	openvc-scraper serve --addr :8080
//
// See --help for all available options.
package main

func main() {
	Execute()
}
