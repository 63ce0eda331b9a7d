// Package main provides the entry point for the dicom-index CLI.
package main

import (
	"os"

	"dicom-viewer/cmd/dicom-index/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
