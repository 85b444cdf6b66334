package main

import "github.com/Akechi360/clinic-ops/cmd"

func main() {
	cmd.Execute()
}
