package main

import "pkgsource/internal/cli"

func main() {
	cli.Execute()
}
