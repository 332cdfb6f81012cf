package main

import "github.com/voxpilot/voxpilot/cmd"

func main() {
	cmd.Execute()
}
