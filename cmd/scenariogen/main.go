package main

import "portfolio-scenario-gen/internal/cli"

func main() {
	cli.Execute()
}
