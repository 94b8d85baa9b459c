// This program is the operator console for the lockbox brain.
package main

import "github.com/ardanlabs/lockbox/app/tooling/lockctl/cmd"

func main() {
	cmd.Execute()
}
