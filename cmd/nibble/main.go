package main

import (
	"bufio"
	"os"

	"github.com/tebeka/atexit"

	"github.com/funvibe/nibble/pkg/cli"
)

func main() {
	out := bufio.NewWriter(os.Stdout)
	atexit.Register(func() {
		out.Flush()
	})
	atexit.Exit(cli.Run(os.Args[1:], out, os.Stderr))
}
