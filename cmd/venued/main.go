package main

import "github.com/lumeforge/venued/internal/cli"

func main() {
	cli.Execute()
}
