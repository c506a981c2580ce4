package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(exitCode(err))
	}
}

// describe prefers the user-facing message of classified errors.
func describe(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, apperror.ErrAuthRequired):
		return 3
	case errors.Is(err, apperror.ErrValidation):
		return 2
	default:
		return 1
	}
}
