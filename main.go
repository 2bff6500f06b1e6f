package main

import "github.com/orrlabs/prefstore/cmd"

func main() {
	cmd.Execute()
}
