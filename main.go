// Entrypoint for the visitbench CLI; delegates to cmd/root.go.
package main

import (
	"github.com/visitbench/visitbench/cmd"
)

func main() {
	cmd.Execute()
}
