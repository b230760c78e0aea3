package main

import "github.com/aleph-zero/canarystack/cmd"

func main() {
	cmd.Execute()
}
