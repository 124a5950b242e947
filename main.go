// The main package for the quakewatch executable.
package main

import (
	"github.com/JakeFAU/quakewatch-crawler/cmd"
)

func main() {
	cmd.Execute()
}
