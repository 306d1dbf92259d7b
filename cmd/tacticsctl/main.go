package main

import (
	"os"

	"github.com/park285/squad-tactics/cmd/tacticsctl/cmd"
)

func main() {
	if err := cmd.NewRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
