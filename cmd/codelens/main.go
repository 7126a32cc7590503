// Command codelens analyzes source files from the terminal.
//
// Usage:
//
//	codelens analyze main.py           # stream the four stages for one file
//	codelens analyze a.go b.go c.go    # analyze several files concurrently
//	cat x.rb | codelens analyze -      # read code from stdin
//	codelens version
package main

import (
	"os"

	"github.com/bryanwahyu/codelens/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
