package main

import "github.com/fulmenhq/docfix/cmd"

func main() {
	cmd.Execute()
}
