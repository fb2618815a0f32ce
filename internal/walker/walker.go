// Package walker implements the auto-walk command queue: section 4.8's
// state machine that pops one queued command per game prompt while moving,
// abbreviating bare directions to their first letter, and cancels itself on
// a forced-movement or movement-prevented line.
package walker

import "mapperproxy/internal/mapdb"

// Walker holds the command queue and autoWalk flag. Like automap.Engine, it
// is meant to run exclusively on the event queue's single consumer
// goroutine, so it carries no internal locking.
type Walker struct {
	queue    []string
	autoWalk bool

	// Send delivers one command to the game, verbatim or abbreviated.
	Send func(string)
	// Output delivers a status line to the player.
	Output func(string)
}

// New returns a Walker that sends queued commands through send.
func New(send func(string)) *Walker {
	return &Walker{Send: send}
}

// Enqueue replaces the pending command queue and starts auto-walking.
// Passing an empty slice is equivalent to Cancel.
func (w *Walker) Enqueue(commands []string) {
	w.queue = append([]string(nil), commands...)
	w.autoWalk = len(w.queue) > 0
}

// Step emits exactly the first of commands, leaving the queue and autoWalk
// untouched,
// used by the "step" mapper command (spec.md §4.7's "step vs run").
func (w *Walker) Step(commands []string) {
	if len(commands) == 0 {
		return
	}
	w.send(commands[0])
}

// IsWalking reports whether a walk is in progress.
func (w *Walker) IsWalking() bool { return w.autoWalk }

// Cancel clears the queue and autoWalk, the effect of the "stop" command
// and of any cancellation trigger.
func (w *Walker) Cancel() {
	w.queue = nil
	w.autoWalk = false
}

// OnPrompt runs on every game prompt. moved reports whether the player's
// position actually changed since the last prompt (automap.Engine's
// "moved" turn-state field); the walker only advances on prompts that
// followed real movement, mirroring spec.md §4.8's "game prompt with moved
// set" trigger.
func (w *Walker) OnPrompt(moved bool) {
	if !moved || !w.autoWalk {
		return
	}
	if len(w.queue) == 0 {
		w.autoWalk = false
		return
	}
	cmd := w.queue[0]
	w.queue = w.queue[1:]
	w.send(cmd)
	if len(w.queue) == 0 {
		w.autoWalk = false
		if w.Output != nil {
			w.Output("Arrived.")
		}
	}
}

func (w *Walker) send(cmd string) {
	if w.Send == nil {
		return
	}
	if mapdb.IsDirection(cmd) {
		w.Send(string(cmd[0]))
		return
	}
	w.Send(cmd)
}

// OnMovementCancelled implements the forced-movement/movement-prevented
// catalog's effect: any in-flight walk is cancelled and the player is told
// why. Wire this to automap.Engine.OnMovementCancelled.
func (w *Walker) OnMovementCancelled() {
	if !w.autoWalk {
		return
	}
	w.Cancel()
	if w.Output != nil {
		w.Output("Movement cancelled.")
	}
}
