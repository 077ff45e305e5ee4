package main

import "github.com/ppiankov/permgate/internal/cli"

func main() {
	cli.Execute()
}
