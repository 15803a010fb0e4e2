// Package command captures units of work.
//
// A command group function receives a Handler, declares the accessors it
// needs, optional explicit event dependencies and exactly one payload. The
// handler records contract violations instead of failing immediately; the
// first one is returned when the queue turns the handler into a Command.
// A handler without a payload yields an empty command that acts as a barrier
// over everything it accessed or depends on.
package command
