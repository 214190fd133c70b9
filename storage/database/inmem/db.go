// Package inmem implements the domain repositories on in-memory tables.
// It backs service and API tests; DEV can run on it without a database.
package inmem

import (
	"context"
	"sync"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/attendance"
	"github.com/athlos-club/athlos/core/branch"
	"github.com/athlos-club/athlos/core/notification"
	"github.com/athlos-club/athlos/core/payment"
	"github.com/athlos-club/athlos/core/thread"
	"github.com/athlos-club/athlos/core/user"
)

type assignmentRow struct {
	coachID    int
	assignment user.BranchAssignment
}

// DB holds all in-memory tables behind one lock; the repositories share it.
type DB struct {
	mu sync.RWMutex

	users       map[int]user.User
	athletes    map[int]int // athlete ID -> user ID
	branches    map[int]branch.Branch
	assignments []assignmentRow
	records     map[int]attendance.Record
	payments    map[int]payment.Payment
	threads     map[int]thread.Thread
	posts       map[int]thread.Post
	resetCodes  map[int]user.ResetCode
	invites     map[int]user.Invite
	subs        map[int]notification.Subscription

	seq map[string]int
}

func NewDB() *DB {
	return &DB{
		users:      make(map[int]user.User),
		athletes:   make(map[int]int),
		branches:   make(map[int]branch.Branch),
		records:    make(map[int]attendance.Record),
		payments:   make(map[int]payment.Payment),
		threads:    make(map[int]thread.Thread),
		posts:      make(map[int]thread.Post),
		resetCodes: make(map[int]user.ResetCode),
		invites:    make(map[int]user.Invite),
		subs:       make(map[int]notification.Subscription),
		seq:        make(map[string]int),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}

// Transactor satisfies core.Transactor without real transactions: fn runs
// with a nil executor, which repositories treat as "use your own handle".
type Transactor struct{}

var _ core.Transactor = (*Transactor)(nil)

func NewTransactor() *Transactor { return &Transactor{} }

func (Transactor) InTransaction(_ context.Context, fn func(exec core.DBExecutor) error) error {
	return fn(nil)
}
