// Command fuzzyctl inspects and exercises fuzzy model files outside the
// simulation: validate a model, print its rule forest, evaluate it for
// given inputs, or write out the built-in flocking model.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
