package main

import "github.com/richinsley/cmfy/internal/cli"

func main() {
	cli.Execute()
}
