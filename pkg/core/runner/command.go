package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
	"golang.org/x/sync/errgroup"
)

var ErrNoCommand = errors.New("no command given")

// Rule classifies a run whose output matches Pattern. The first capture
// group, if any, becomes the detail that is compared with the original run.
type Rule struct {
	Pattern *regexp.Regexp
	Outcome AnalysisOutcome
}

// ParseRule parses "OUTCOME=regexp".
func ParseRule(s string) (Rule, error) {
	name, pattern, ok := strings.Cut(s, "=")
	if !ok {
		return Rule{}, fmt.Errorf("rule %q is not of the form OUTCOME=regexp", s)
	}
	o, err := ParseAnalysisOutcome(name)
	if err != nil {
		return Rule{}, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: %w", s, err)
	}
	return Rule{Pattern: re, Outcome: o}, nil
}

// Result is one classified run.
type Result struct {
	Outcome  AnalysisOutcome
	Detail   string
	ExitCode int
	Duration time.Duration
	Stdout   []byte
	Stderr   []byte
}

// Command runs the analysis as an external process.
type Command struct {
	Args   []string
	Dir    string
	Env    []string
	Rules  []Rule
	Limits Limits

	original time.Duration
}

// SetOriginalDuration sets the run time the soft cap is derived from.
func (c *Command) SetOriginalDuration(d time.Duration) {
	c.original = d
}

// Timeout is the wall time granted to the next run.
func (c *Command) Timeout() time.Duration {
	return c.Limits.Timeout(c.original)
}

// Run executes the command once and classifies its output. A run that
// exceeds the timeout is killed and reported as a timeout; only a canceled
// ctx or a failure to start is returned as an error.
func (c *Command) Run(ctx context.Context) (Result, error) {
	if len(c.Args) == 0 {
		return Result{}, ErrNoCommand
	}
	timeout := c.Timeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	cmd.WaitDelay = time.Second

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("starting %s: %w", c.Args[0], err)
	}

	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&stdout, stdoutPipe)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&stderr, stderrPipe)
		return err
	})
	copyErr := g.Wait()
	waitErr := cmd.Wait()

	r := Result{
		Duration: time.Since(start),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	if ctx.Err() != nil {
		return r, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		logging.Infof("Runner: Run exceeded %s and was killed.", timeout)
		r.Outcome = VerdictUnknownBecauseOfTimeout
		return r, nil
	}
	if copyErr != nil {
		logging.Warnf("Runner: Reading output failed: %v", copyErr)
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return r, fmt.Errorf("waiting for %s: %w", c.Args[0], waitErr)
	}

	c.classify(&r)
	logging.Debugf("Runner: Exit code %d after %s: %s %q", r.ExitCode, r.Duration.Round(time.Millisecond), r.Outcome, r.Detail)
	return r, nil
}

func (c *Command) classify(r *Result) {
	output := string(r.Stdout) + "\n" + string(r.Stderr)
	for _, rule := range c.Rules {
		m := rule.Pattern.FindStringSubmatch(output)
		if m == nil {
			continue
		}
		r.Outcome = rule.Outcome
		if len(m) > 1 {
			r.Detail = m[1]
		} else {
			r.Detail = m[0]
		}
		return
	}

	if r.ExitCode == 0 {
		r.Outcome = VerdictTrue
		return
	}
	r.Outcome = FailureBecauseOfException
	r.Detail = lastLine(r.Stderr)
	if r.Detail == "" {
		r.Detail = fmt.Sprintf("exit status %d", r.ExitCode)
	}
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimRight(string(b), "\r\n\t "), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// Analysis judges configurations by running a command and classifying it.
type Analysis struct {
	Command    *Command
	Classifier *Classifier
}

// Calibrate runs the command on the unmodified input, records it as the
// original run and returns its result.
func (a *Analysis) Calibrate(ctx context.Context) (Result, error) {
	r, err := a.Command.Run(ctx)
	if err != nil {
		return r, err
	}
	a.Command.SetOriginalDuration(r.Duration)
	a.Classifier.SetOriginal(r)
	logging.Infof("Runner: Original run took %s: %s.", r.Duration.Round(time.Millisecond), r.Outcome.Human())
	return r, nil
}

// Judge runs the command and maps the run to a delta debugging outcome.
func (a *Analysis) Judge(ctx context.Context) (dd.Outcome, error) {
	r, err := a.Command.Run(ctx)
	if err != nil {
		return dd.OutcomeUnresolved, err
	}
	o := a.Classifier.Classify(r)
	logging.Infof("Runner: %s -> %s", a.Classifier.Normalize(r).Human(), o)
	return o, nil
}
