package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/folio/internal/dagger"
)

// CheckGoModTidy fails when "go mod tidy" would change go.mod or go.sum.
//
// +check
func (f *Folio) CheckGoModTidy(ctx context.Context) (string, error) {
	out, err := f.goContainer().
		WithExec([]string{"cp", "go.mod", "/tmp/go.mod.HEAD"}).
		WithExec([]string{"sh", "-c", "cp go.sum /tmp/go.sum.HEAD 2>/dev/null || touch /tmp/go.sum.HEAD"}).
		WithExec([]string{"go", "mod", "tidy"}).
		WithExec([]string{"sh", "-c", "diff -u /tmp/go.mod.HEAD go.mod && diff -u /tmp/go.sum.HEAD go.sum"}).
		Stdout(ctx)

	var execErr *dagger.ExecError
	switch {
	case errors.As(err, &execErr):
		return "", fmt.Errorf("go.mod or go.sum are not tidy, run 'go mod tidy':\n\n%s", execErr.Stdout)
	case err != nil:
		return "", fmt.Errorf("running go mod tidy: %w", err)
	}

	return "go.mod and go.sum are tidy\n" + out, nil
}
