package main

import (
	"errors"
	"os"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := newRootCmd(a).Execute(); err != nil {
		if !errors.Is(err, errFilesFailed) {
			a.printError("%v", err)
		}
		os.Exit(1)
	}
}
