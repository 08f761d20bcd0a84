package main

import "github.com/forPelevin/capsync/internal/cli"

func main() {
	cli.Main()
}
