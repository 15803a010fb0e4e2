package workload

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/specialistvlad/memgrid/internal/access"
	"github.com/specialistvlad/memgrid/internal/event"
	"github.com/specialistvlad/memgrid/internal/graph"
)

// Status is the outcome of one command of a workload.
type Status int

const (
	StatusPending Status = iota
	StatusCompleted
	StatusFailed
	StatusSkipped
	// StatusRejected means submission failed and no event exists.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusRejected:
		return "rejected"
	default:
		return "pending"
	}
}

func (s Status) icon() string {
	switch s {
	case StatusCompleted:
		return "✅"
	case StatusSkipped:
		return "⏭️"
	case StatusPending:
		return "⏳"
	default:
		return "❌"
	}
}

// CommandResult is the outcome of one command.
type CommandResult struct {
	Name string
	// Queue is the queue the command ran on, which differs from the
	// declared one after a fallback.
	Queue    string
	Device   string
	Kernel   string
	Status   Status
	Err      error
	Duration time.Duration

	event *event.Event
}

// BufferResult holds a buffer's contents after the workload finished.
type BufferResult struct {
	Name   string
	ViewOf string
	Elem   access.ElemType
	Shape  []int
	Values []float64
	// WriteBack reports whether the buffer had a host destination, and
	// WrittenBack what arrived there on release.
	WriteBack   bool
	WrittenBack []float64
}

// Result is the report of one workload run.
type Result struct {
	Commands []CommandResult
	Buffers  []BufferResult
	Summary  graph.Summary
	Elapsed  time.Duration
}

// Command looks up a command result by name.
func (r *Result) Command(name string) (CommandResult, bool) {
	for _, c := range r.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandResult{}, false
}

// Buffer looks up a buffer result by name.
func (r *Result) Buffer(name string) (BufferResult, bool) {
	for _, b := range r.Buffers {
		if b.Name == name {
			return b, true
		}
	}
	return BufferResult{}, false
}

// Rejected counts the commands whose submission failed.
func (r *Result) Rejected() int {
	n := 0
	for _, c := range r.Commands {
		if c.Status == StatusRejected {
			n++
		}
	}
	return n
}

// Err joins the errors of every command that did not complete.
func (r *Result) Err() error {
	var errs []error
	for _, c := range r.Commands {
		if c.Status != StatusCompleted {
			err := c.Err
			if err == nil {
				err = errors.New(c.Status.String())
			}
			errs = append(errs, fmt.Errorf("command %s: %w", c.Name, err))
		}
	}
	return errors.Join(errs...)
}

// WriteTo prints a human-readable report.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Commands:")
	for _, c := range r.Commands {
		where := c.Queue
		if c.Device != "" {
			where += "/" + c.Device
		}
		kernel := c.Kernel
		if kernel == "" {
			kernel = "-"
		}
		line := fmt.Sprintf("  %s %s\t%s\t%s\t%s\t%s", c.Status.icon(), c.Name, where, kernel, c.Status, c.Duration.Round(time.Microsecond))
		if c.Err != nil {
			line += "\t" + c.Err.Error()
		}
		fmt.Fprintln(tw, line)
	}
	fmt.Fprintln(tw, "Buffers:")
	for _, b := range r.Buffers {
		name := b.Name
		if b.ViewOf != "" {
			name += " (view of " + b.ViewOf + ")"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%v\t= %s\n", name, b.Elem, b.Shape, formatValues(b.Values))
	}
	if err := tw.Flush(); err != nil {
		return 0, err
	}
	fmt.Fprintf(&sb, "Summary: %d completed, %d failed, %d skipped, %d rejected in %s\n",
		r.Summary.Completed, r.Summary.Failed, r.Summary.Skipped, r.Rejected(), r.Elapsed.Round(time.Microsecond))

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func formatValues(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
