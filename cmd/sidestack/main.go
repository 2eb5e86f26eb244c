package main

import "sidestack/internal/cli"

func main() {
	cli.Execute()
}
