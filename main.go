// Idiomatic entrypoint for the Cobra CLI, which delegates to the root
// command in cmd/root.go.

package main

import (
	"github.com/sysdyn/sysdyn/cmd"
)

func main() {
	cmd.Execute()
}
