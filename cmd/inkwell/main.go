package main

import "github.com/inkwell-network/inkwell/internal/cli"

func main() {
	cli.Execute()
}
