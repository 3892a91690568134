/*
Copyright 2015-2021 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package authserver

import "context"

// chainedState is the per-session state the chained-session driver owns
// (spec section 4.3):
//   - WaitingForIssuer{waiters}: clients calling wait_for_result are
//     queued in waiters until the issuer posts a disclosure.
//   - IssuerWaiting{disclosure, waiter}: the issuer has posted and is
//     itself blocked on release_next_session's result, which arrives on
//     issuerReply.
//
// issuerReply is nil in the former state, non-nil in the latter; that
// alone distinguishes the two without a separate tag.
type chainedState struct {
	waiters     []chan waitResult
	issuerReply chan releaseResult
	disclosure  string
}

type waitResult struct {
	disclosure string
	gone       bool
}

// releaseResult is both release_next_session's own reply and, via
// chainedState.issuerReply, the value that unblocks the issuer's single
// post-and-await-next call.
type releaseResult struct {
	nextSession *string
	tooEarly    bool
	gone        bool
	rejected    bool // a second issuer tried to post for this session
}

type commandKind int

const (
	cmdRegister commandKind = iota
	cmdIssuerPostAndAwaitNext
	cmdWaitForResult
	cmdReleaseNextSession
)

// command is the chained-session driver's mailbox message. Reply channels
// are buffered so the driver's send can never block on, or race with, the
// caller's receive; a caller that gives up on its reply (request context
// canceled) simply never reads it, which is fine (spec section 5: "the
// chained-session actor tolerates closed oneshot receivers" - here,
// abandoned ones, since nothing here is ever actually closed).
type command struct {
	sessionID string
	kind      commandKind

	disclosure string // cmdIssuerPostAndAwaitNext

	waitReply chan waitResult // cmdWaitForResult

	nextSession  *string // cmdReleaseNextSession
	releaseReply chan releaseResult
}

// driver is the single-task actor owning every chained session's state
// (spec section 4.3's "Issuer session driver"). Commands are processed
// strictly in arrival order off one channel, so release_next_session can
// never overtake the wait_for_result call it answers.
type driver struct {
	cmds     chan command
	sessions map[string]*chainedState
}

func newDriver() *driver {
	return &driver{
		cmds:     make(chan command, 256),
		sessions: make(map[string]*chainedState),
	}
}

// run is the actor's event loop; call it once, in its own goroutine, for
// the lifetime of the server.
func (d *driver) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-d.cmds:
			d.handle(cmd)
		}
	}
}

func (d *driver) handle(cmd command) {
	switch cmd.kind {
	case cmdRegister:
		if _, ok := d.sessions[cmd.sessionID]; !ok {
			d.sessions[cmd.sessionID] = &chainedState{}
		}
	case cmdIssuerPostAndAwaitNext:
		d.handleIssuerPost(cmd)
	case cmdWaitForResult:
		d.handleWaitForResult(cmd)
	case cmdReleaseNextSession:
		d.handleReleaseNextSession(cmd)
	}
}

func (d *driver) handleIssuerPost(cmd command) {
	st, ok := d.sessions[cmd.sessionID]
	if !ok {
		cmd.releaseReply <- releaseResult{gone: true}
		return
	}
	if st.issuerReply != nil {
		// Issuer POST while IssuerWaiting: reject (second issuer).
		cmd.releaseReply <- releaseResult{rejected: true}
		return
	}
	// WaitingForIssuer -> IssuerWaiting: release every queued waiter, then
	// park this issuer's reply channel until release_next_session fires.
	for _, w := range st.waiters {
		w <- waitResult{disclosure: cmd.disclosure}
	}
	st.waiters = nil
	st.disclosure = cmd.disclosure
	st.issuerReply = cmd.releaseReply
}

func (d *driver) handleWaitForResult(cmd command) {
	st, ok := d.sessions[cmd.sessionID]
	if !ok {
		cmd.waitReply <- waitResult{gone: true}
		return
	}
	if st.issuerReply != nil {
		cmd.waitReply <- waitResult{disclosure: st.disclosure}
		return
	}
	st.waiters = append(st.waiters, cmd.waitReply)
}

func (d *driver) handleReleaseNextSession(cmd command) {
	st, ok := d.sessions[cmd.sessionID]
	if !ok {
		cmd.releaseReply <- releaseResult{gone: true}
		return
	}
	if st.issuerReply == nil {
		// WaitingForIssuer: reply TooEarly.
		cmd.releaseReply <- releaseResult{tooEarly: true}
		return
	}
	st.issuerReply <- releaseResult{nextSession: cmd.nextSession}
	delete(d.sessions, cmd.sessionID)
	cmd.releaseReply <- releaseResult{}
}
