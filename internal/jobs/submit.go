// Package jobs submits TB-Profiler batch array jobs to the cluster scheduler.
package jobs

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/tbgui/tbgui/internal/config"
	"github.com/tbgui/tbgui/internal/constants"
	"github.com/tbgui/tbgui/internal/remotefs"
	"github.com/tbgui/tbgui/internal/tberr"
	"github.com/tbgui/tbgui/internal/validation"
)

// Request is one array-job submission.
type Request struct {
	Script       string
	Samples      []string
	RawDir       string
	OutDir       string
	UserTemplate string
	// ArraySize is the number of array tasks, taken from the caller's checked count.
	ArraySize int
}

// NewRequest validates the submission inputs and assembles a Request.
// No remote call is made; the checks run in this order:
//  1. checkedCount must be at least 1 (tberr.ErrNoItemsChecked)
//  2. tb_profiler_script, remote_raw_dir, remote_out_dir, user_template_remote
//     must be set (*tberr.ConfigurationError)
//  3. every sample name must be shell-safe (*tberr.JobSubmissionError)
//  4. checkedCount must equal len(names) (*tberr.JobSubmissionError)
func NewRequest(cfg *config.RemoteConfig, names []string, checkedCount int) (*Request, error) {
	if checkedCount < 1 {
		return nil, tberr.ErrNoItemsChecked
	}

	values, err := cfg.RequireAll(
		config.FieldTBProfilerScript,
		config.FieldRemoteRawDir,
		config.FieldRemoteOutDir,
		config.FieldUserTemplateRemote,
	)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateSampleNames(names); err != nil {
		return nil, &tberr.JobSubmissionError{Reason: err.Error()}
	}
	if checkedCount != len(names) {
		return nil, &tberr.JobSubmissionError{
			Reason: fmt.Sprintf("%d samples checked but %d names given", checkedCount, len(names)),
		}
	}

	return &Request{
		Script:       values[0],
		RawDir:       values[1],
		OutDir:       values[2],
		UserTemplate: values[3],
		Samples:      names,
		ArraySize:    checkedCount,
	}, nil
}

// Command renders the sbatch invocation. The sample list is a single
// double-quoted argument; the script receives it as one word and splits
// it on spaces.
func (r *Request) Command() string {
	return fmt.Sprintf("sbatch --array 0-%d %s \"%s\" %s %s %s",
		r.ArraySize-1,
		remotefs.Quote(r.Script),
		strings.Join(r.Samples, constants.SampleListSeparator),
		remotefs.Quote(r.RawDir),
		remotefs.Quote(r.OutDir),
		remotefs.Quote(r.UserTemplate),
	)
}

// BuildCommand returns the sbatch command Submit would run.
func BuildCommand(cfg *config.RemoteConfig, names []string, checkedCount int) (string, error) {
	req, err := NewRequest(cfg, names, checkedCount)
	if err != nil {
		return "", err
	}
	return req.Command(), nil
}

// Submit enqueues one array job covering names and returns the scheduler's
// stdout. checkedCount sizes the array and must match len(names).
//
// A non-zero scheduler exit is a *tberr.JobSubmissionError carrying the
// exit status and both output streams.
func Submit(ctx context.Context, exec remotefs.Executor, cfg *config.RemoteConfig, names []string, checkedCount int) (string, error) {
	req, err := NewRequest(cfg, names, checkedCount)
	if err != nil {
		return "", err
	}

	result, err := exec.Execute(ctx, req.Command())
	if err != nil {
		return "", tberr.Network("submit batch job", err)
	}
	if !result.Success() {
		return "", &tberr.JobSubmissionError{
			ExitStatus: result.ExitStatus,
			Stdout:     result.Stdout,
			Stderr:     result.Stderr,
		}
	}
	return result.Stdout, nil
}

// CheckIfRunning reports whether the configured user has jobs in the
// scheduler queue. It is an optional guard; Submit does not call it.
func CheckIfRunning(ctx context.Context, exec remotefs.Executor, cfg *config.RemoteConfig) (bool, error) {
	user, err := cfg.Require(config.FieldUsername)
	if err != nil {
		return false, err
	}

	result, err := exec.Execute(ctx, "squeue -u "+remotefs.Quote(user))
	if err != nil {
		return false, tberr.Network("query scheduler queue", err)
	}
	return queueHasUser(result.Stdout, user), nil
}

// queueHasUser reports whether a squeue listing has a row owned by user.
// When the first line is the usual header, only its USER column is compared;
// otherwise any whitespace-separated field equal to user counts.
func queueHasUser(out, user string) bool {
	col := -1
	first := true
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if first {
			first = false
			if i := slices.Index(fields, "USER"); i >= 0 {
				col = i
				continue
			}
		}
		if col >= 0 {
			if col < len(fields) && fields[col] == user {
				return true
			}
			continue
		}
		if slices.Contains(fields, user) {
			return true
		}
	}
	return false
}
