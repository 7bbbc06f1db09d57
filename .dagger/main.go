// CI functions for npmreport
//
// The module runs the unit tests, including the mock-based ones behind the
// "unit" build tag, and golangci-lint against the repository sources.

package main

import (
	"dagger/npmreport/internal/dagger"
)

const goImage = "golang:1.24"

type Npmreport struct{}

func goContainer(sourceDir *dagger.Directory) *dagger.Container {
	return dag.Container().From(goImage).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithMountedDirectory("/src", sourceDir).
		WithWorkdir("/src")
}

// UnitTests runs every Go test of the main module with the unit tag.
func (m *Npmreport) UnitTests(sourceDir *dagger.Directory) *dagger.Container {
	return goContainer(sourceDir).
		WithExec([]string{"go", "test", "-tags", "unit", "-race", "./..."})
}

// CheckGenerate fails when the committed mocks differ from mockgen output.
func (m *Npmreport) CheckGenerate(sourceDir *dagger.Directory) *dagger.Container {
	return goContainer(sourceDir).
		WithExec([]string{"go", "generate", "./..."}).
		WithExec([]string{"git", "diff", "--exit-code", "--", "pkg"})
}

// Lint runs golangci-lint on the main repo (./...) only.
func (m *Npmreport) Lint(sourceDir *dagger.Directory) *dagger.Container {
	c := dag.Container().
		From("golangci/golangci-lint:v1.62.0").
		WithMountedCache("/root/.cache/golangci-lint", dag.CacheVolume("golangci-lint"))

	c = c.WithMountedDirectory("/src", sourceDir).
		WithWorkdir("/src")

	return c.WithExec([]string{"golangci-lint", "run", "--build-tags", "unit", "--timeout", "10m", "./..."})
}

// LintDagger runs golangci-lint on the .dagger directory only.
func (m *Npmreport) LintDagger(sourceDir *dagger.Directory) *dagger.Container {
	c := dag.Container().
		From("golangci/golangci-lint:v1.62.0").
		WithMountedCache("/root/.cache/golangci-lint", dag.CacheVolume("golangci-lint"))

	c = c.WithMountedDirectory("/src", sourceDir).
		WithWorkdir("/src")

	return c.WithExec([]string{"sh", "-c", "cd .dagger && golangci-lint run --timeout 10m ."})
}
