package main

import "github.com/lite-lake/zonesync/internal/interfaces/cli"

func main() {
	cli.Execute()
}
