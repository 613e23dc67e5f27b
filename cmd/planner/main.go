package main

import "github.com/andrescamacho/upgrade-planner/internal/adapters/cli"

func main() {
	cli.Execute()
}
