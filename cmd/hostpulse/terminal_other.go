//go:build !linux

package main

import (
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"
)

const clearScreen = "\033[H\033[2J"

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func enableSingleView(*zap.Logger) func() {
	return func() {}
}
