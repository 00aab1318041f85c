package main

import "lambda-events/cmd/lambdalocal/cmd"

func main() {
	cmd.Execute()
}
