package main

import (
	"stall-booking/cmd"

	_ "go.uber.org/automaxprocs"
)

func main() {
	cmd.Start()
}
