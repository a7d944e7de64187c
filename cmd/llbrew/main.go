// Command llbrew compiles formula descriptors into build plans and runs them.
package main

import "github.com/goplus/llbrew/cmd/llbrew/internal"

func main() {
	internal.Execute()
}
