package main

import "github.com/khanhnv2901/seca-stacks/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
