package main

import (
	"os"

	"github.com/user/steam-claimer/internal/usecase"
)

func main() {
	code := usecase.ExitOK
	root := newRootCommand(&code)
	if err := root.Execute(); err != nil {
		os.Exit(usecase.ExitFailure)
	}
	os.Exit(code)
}
