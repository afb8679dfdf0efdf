// Command poolctl runs scenario scripts against the kernel resource pools.
package main

import "github.com/mesh-intelligence/kernelpool/internal/cli"

func main() {
	cli.Execute()
}
