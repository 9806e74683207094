package main

import (
	"pdfrag/internal/cli"
)

var version = "dev"

// main hands control to the cobra root command.
func main() {
	cli.SetVersion(version)
	cli.Execute()
}
