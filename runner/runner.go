package runner

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result records the outcome of one shell task. A non-nil Err marks the task
// as failed; it never fails the batch it ran in.
type Result struct {
	Command  string
	Err      error
	Duration time.Duration
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// Run executes the given shell commands with at most j running concurrently
// and blocks until every one of them has terminated. Task failures are
// reported in the returned results, one per command in input order; Run itself
// only errors on an unusable batch (no commands, j < 1). A task must not
// depend on another task's output within the same batch.
func Run(cmds []string, j int, verbose bool) ([]Result, error) {
	if len(cmds) == 0 {
		return nil, fmt.Errorf("runner: no commands to run")
	}
	if j < 1 {
		return nil, fmt.Errorf("runner: concurrency must be at least 1, got %d", j)
	}

	results := make([]Result, len(cmds))
	var g errgroup.Group
	g.SetLimit(j)

	for i := range cmds {
		i := i
		g.Go(func() error {
			if verbose {
				fmt.Fprintln(os.Stderr, cmds[i])
			}
			start := time.Now()
			cmd := exec.Command("bash", "-c", cmds[i])
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			err := cmd.Run()
			results[i] = Result{Command: cmds[i], Err: err, Duration: time.Since(start)}
			return nil
		})
	}

	// Tasks never propagate their own errors, so Wait only synchronizes.
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Failures filters a batch down to its failed tasks.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}
