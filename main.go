package main

import "github.com/rfagundes/zapblast/cmd"

func main() {
	cmd.Execute()
}
