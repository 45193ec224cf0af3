package main

import "github.com/killallgit/eafkit/cmd"

func main() {
	cmd.Execute()
}
