package main

import "github.com/custodia-labs/scribe/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
