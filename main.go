package main

import "github.com/gloski/cli/cmd"

func main() {
	cmd.Execute()
}
