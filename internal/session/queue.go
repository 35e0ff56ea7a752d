package session

// Queue holds the commands awaiting execution and those that failed under
// skip-on-error. Initial commands are appended at the tail; follow-ups are
// pushed at the head so expansion is depth-first.
type Queue struct {
	pending []string
	failed  []string
}

// NewQueue returns a queue holding initial in order.
func NewQueue(initial ...string) *Queue {
	q := &Queue{}
	q.Append(initial...)
	return q
}

// Append adds commands at the tail, in order.
func (q *Queue) Append(cmds ...string) {
	q.pending = append(q.pending, cmds...)
}

// PushFront inserts commands at the head, keeping their relative order, so
// they all run before anything queued earlier.
func (q *Queue) PushFront(cmds ...string) {
	if len(cmds) == 0 {
		return
	}
	next := make([]string, 0, len(cmds)+len(q.pending))
	next = append(next, cmds...)
	q.pending = append(next, q.pending...)
}

// Pop removes and returns the head.
func (q *Queue) Pop() (string, bool) {
	if len(q.pending) == 0 {
		return "", false
	}
	head := q.pending[0]
	q.pending = q.pending[1:]
	return head, true
}

// Len returns the number of pending commands.
func (q *Queue) Len() int { return len(q.pending) }

// Pending returns a copy of the pending commands.
func (q *Queue) Pending() []string {
	return append([]string(nil), q.pending...)
}

// Drain empties the queue and returns what was pending.
func (q *Queue) Drain() []string {
	out := q.pending
	q.pending = nil
	return out
}

// Fail records a command that failed under skip-on-error.
func (q *Queue) Fail(cmd string) {
	q.failed = append(q.failed, cmd)
}

// Failed returns a copy of the failed commands.
func (q *Queue) Failed() []string {
	return append([]string(nil), q.failed...)
}
