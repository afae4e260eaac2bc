// Command workbench is the CLI entry point for the workflow engine.
package main

import "github.com/launchdeck/workbench/internal/cli"

func main() {
	cli.Execute()
}
