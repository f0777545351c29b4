package main

import (
	"os"

	"github.com/garagon/skillaudit/cmd/skillaudit/commands"
)

func main() {
	os.Exit(commands.Execute())
}
