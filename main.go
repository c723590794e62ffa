package main

import (
	"fmt"
	"os"

	_ "course-matcher/docs"
	"course-matcher/internal/cli"
)

// @title Course Matcher API
// @version 1.0
// @description Compares course description pages of two universities.
// @BasePath /
func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
