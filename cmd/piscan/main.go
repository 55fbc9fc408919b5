package main

import "github.com/tsawler/piscan/internal/cli"

func main() {
	cli.Execute()
}
