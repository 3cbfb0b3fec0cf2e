package events

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

// ExecHook represents a single hook configuration
type ExecHook struct {
	Command []string `toml:"command"`
	Timeout int      `toml:"timeout"` // timeout in seconds, 0 means use default (60s)
	// Events limits the hook to the given kinds, empty means all events
	Events []model.EventKind `toml:"events"`
}

// Invoke runs a hook with the provided environment variables
func (h *ExecHook) Invoke(ctx context.Context, env []string) error {
	if h == nil {
		return nil
	}
	if len(h.Command) == 0 {
		return errors.New("hook command is empty")
	}

	timeout := h.Timeout
	if timeout == 0 {
		timeout = model.DefaultHookTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	var cmd *exec.Cmd
	if len(h.Command) == 1 {
		// Single command, use shell to parse
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", h.Command[0])
	} else {
		cmd = exec.CommandContext(ctx, h.Command[0], h.Command[1:]...)
	}

	cmd.Env = append(os.Environ(), env...)

	data, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("hook execution failed: %v, output: %s", err, string(data))
	}

	return nil
}

func (h *ExecHook) accepts(kind model.EventKind) bool {
	if len(h.Events) == 0 {
		return true
	}

	for _, k := range h.Events {
		if k == kind {
			return true
		}
	}

	return false
}

// Hooks runs external commands for every published event.
type Hooks []*ExecHook

func (h Hooks) Publish(ctx context.Context, event *model.Event) error {
	env := []string{
		"PLEDGE_EVENT=" + string(event.Kind),
		"PLEDGE_SEQ=" + strconv.FormatUint(event.Seq, 10),
		"PLEDGE_CALLER=" + string(event.Caller),
		"PLEDGE_AMOUNT=" + strconv.FormatUint(event.Amount, 10),
		"PLEDGE_TOTAL=" + strconv.FormatUint(event.TotalPledged, 10),
	}

	var result *multierror.Error
	for i, hook := range h {
		if !hook.accepts(event.Kind) {
			continue
		}

		if err := hook.Invoke(ctx, env); err != nil {
			log.WithError(err).Errorf("failed to execute hook %d for %s", i, event.Kind)
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func (h Hooks) Close() error {
	return nil
}
