package main

import (
	"os"

	"github.com/inceptlabs/quizforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
