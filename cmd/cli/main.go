package main

import "github.com/heaptrace/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
