// Command qamatch runs the offline matcher against the knowledge files and
// prints the detected language, score and matched category per phrase.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
