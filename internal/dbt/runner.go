package dbt

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner materializes the marts schema from the raw schema. The actual
// transformation engine is external; this package only owns the invocation
// contract: run it, and surface its output verbatim on failure.
type Runner interface {
	Run(ctx context.Context) (string, error)
}

// CommandRunner invokes `dbt run` in the dbt project directory.
type CommandRunner struct {
	Bin        string
	ProjectDir string
}

// NewCommandRunner creates a CommandRunner for the given dbt binary and
// project directory.
func NewCommandRunner(bin, projectDir string) *CommandRunner {
	return &CommandRunner{Bin: bin, ProjectDir: projectDir}
}

// Run executes the transformation and returns its combined output. A non-zero
// exit carries the output in the error so the pipeline can report it as the
// stage diagnostic.
func (r *CommandRunner) Run(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.Bin, "run")
	cmd.Dir = r.ProjectDir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("dbt run failed: %w\n%s", err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}
