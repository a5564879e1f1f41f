package main

import "github.com/will-rowe/jam/cmd"

func main() {
	cmd.Execute()
}
