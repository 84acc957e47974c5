package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	switch {
	case err == nil:
		return
	case errors.Is(err, context.Canceled):
		// ctrl-c before the episode started; nothing to report
	default:
		fmt.Fprintf(os.Stderr, "newscast: %v\n", err)
	}
	os.Exit(1)
}
