// Folio CI
//
// Package main provides reproducible builds and tests for folio, locally and
// in CI.
package main

import (
	"context"

	"dagger/folio/internal/dagger"
)

// Folio is the CI module for the folio client.
type Folio struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a Folio CI module instance.
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", "build", "tmp", ".folio", "_examples"]
	source *dagger.Directory,
) *Folio {
	return &Folio{
		Source: source,
	}
}

// goContainer returns a Go container with module and build caches and the
// project source mounted. folio is pure Go, so CGO stays off.
func (f *Folio) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", f.Source)
}

// Test runs the unit tests.
//
// +check
func (f *Folio) Test(ctx context.Context) (string, error) {
	return f.goContainer().
		WithExec([]string{"go", "test", "./..."}).
		Stdout(ctx)
}

// Vet runs "go vet" over the module.
//
// +check
func (f *Folio) Vet(ctx context.Context) (string, error) {
	return f.goContainer().
		WithExec([]string{"go", "vet", "./..."}).
		Stdout(ctx)
}
