package main

import "github.com/nestlock/nestlock/cmd"

func main() {
	cmd.Execute()
}
