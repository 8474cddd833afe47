package listing

type State int

const (
	Idle State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	}
	return "idle"
}

// List is the loaded page of one entity kind. Each load takes a sequence
// number from Begin; only the answer to the latest one is applied, so a
// slow earlier response cannot overwrite a newer one.
type List[T any] struct {
	Items []T
	State State
	Err   error

	seq uint64
}

func (l *List[T]) Begin() uint64 {
	l.seq++
	l.State = Loading
	return l.seq
}

// Apply stores the result of load seq. It reports false and changes nothing
// when seq is stale. A failed load leaves an empty list in the Loaded state
// with the error kept in Err.
func (l *List[T]) Apply(seq uint64, items []T, err error) bool {
	if seq != l.seq {
		return false
	}
	l.State = Loaded
	l.Err = err
	if err != nil || items == nil {
		l.Items = []T{}
		return true
	}
	l.Items = items
	return true
}

func (l *List[T]) Loading() bool {
	return l.State == Loading
}

func (l *List[T]) Len() int {
	return len(l.Items)
}

// Confirm is the two-step delete: Stage picks the target, Confirm fires it
// exactly once.
type Confirm struct {
	id     string
	staged bool
}

func (c *Confirm) Stage(id string) {
	c.id = id
	c.staged = true
}

func (c *Confirm) Pending() (string, bool) {
	return c.id, c.staged
}

func (c *Confirm) Confirm() (string, bool) {
	if !c.staged {
		return "", false
	}
	id := c.id
	c.Cancel()
	return id, true
}

func (c *Confirm) Cancel() {
	c.id = ""
	c.staged = false
}
