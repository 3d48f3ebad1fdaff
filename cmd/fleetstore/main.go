// Package main provides the fleetstore CLI.
package main

import "github.com/meshwatch/fleetstore/internal/cli"

func main() {
	cli.Execute()
}
