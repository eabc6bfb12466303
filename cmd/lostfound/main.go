package main

import "github.com/mcoot/lostfound/internal/cli"

func main() {
	cli.Execute()
}
