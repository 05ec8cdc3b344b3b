// Package main provides the scorecard CLI.
//
// scorecard turns a cricket match page into a one-page printable
// scorecard. It can run once from the command line or serve the same
// pipeline over HTTP.
//
// Usage:
//
//	scorecard generate <match-url> [--man-of-the-match NAME] [--format pdf] [--output FILE]
//	scorecard serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
