package main

import "github.com/killallgit/deckchat/cmd"

func main() {
	cmd.Execute()
}
