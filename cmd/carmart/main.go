package main

import "github.com/goliatone/go-carmart/internal/cli"

func main() {
	cli.Execute()
}
