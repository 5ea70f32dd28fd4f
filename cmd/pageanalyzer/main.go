// Package main is the entry point for the page analyzer.
//
// Usage:
//
//	pageanalyzer serve
//	pageanalyzer check <url>
package main

func main() {
	Execute()
}
