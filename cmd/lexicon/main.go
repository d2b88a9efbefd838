// Package main implements the lexicon command, the operator entry point for
// the vocabulary learning core: schema migrations, vocabulary imports,
// reviews, study plans, progress reports and the background worker.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
