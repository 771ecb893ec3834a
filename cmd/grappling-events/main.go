package main

import "github.com/pfrederiksen/grappling-events/internal/cli"

func main() {
	cli.Execute()
}
