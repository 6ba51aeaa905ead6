package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/folio/internal/dagger"
)

const versionPkg = "github.com/papercomputeco/folio/pkg/utils"

var (
	buildOSes   = []string{"linux", "darwin", "windows"}
	buildArches = []string{"amd64", "arm64"}
)

// Build cross-compiles the folio binary into <os>/<arch>/ directories.
func (f *Folio) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	outputs := dag.Directory()
	golang := f.goContainer()

	for _, goos := range buildOSes {
		for _, goarch := range buildArches {
			path := fmt.Sprintf("%s/%s/", goos, goarch)

			build := golang.
				WithEnvVariable("GOOS", goos).
				WithEnvVariable("GOARCH", goarch).
				WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/folio"})

			outputs = outputs.WithDirectory(path, build.Directory(path))
		}
	}

	return outputs
}

// BuildRelease builds with version, commit and build time stamped into
// "folio version".
func (f *Folio) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	ldflags := []string{
		"-s", "-w",
		fmt.Sprintf("-X '%s.Version=%s'", versionPkg, version),
		fmt.Sprintf("-X '%s.Sha=%s'", versionPkg, commit),
		fmt.Sprintf("-X '%s.Buildtime=%s'", versionPkg, time.Now().UTC().Format(time.RFC3339)),
	}

	return f.Build(ctx, strings.Join(ldflags, " "))
}
