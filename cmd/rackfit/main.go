package main

import (
	"github.com/DrSkyle/rackfit/cmd/rackfit/commands"
)

func main() {
	commands.Execute()
}
