package main

import (
	"context"
	"ebscript/pkg/log"
	"ebscript/pkg/object"
	"errors"
	"log/slog"
	"os"
)

func main() {
	err := Run(context.Background(), os.Exit, os.Args[1:]...)
	if err == nil {
		return
	}
	var se *object.Error
	if errors.As(err, &se) {
		renderError(os.Stderr, err)
	} else {
		log.Default().Error("run failed", slog.Any("error", err))
	}
	os.Exit(1)
}
