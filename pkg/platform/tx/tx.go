package tx

import (
	"context"
	"database/sql"
	"sort"
	"sync"
)

type ctxKey struct{}

var txKey = ctxKey{}

// Scope is one open unit of work: the SQL transaction, the store that opened
// it, and the set of tables written so far.
type Scope struct {
	Tx    *sql.Tx
	owner any

	mu      sync.Mutex
	touched map[string]struct{}
}

// NewScope opens a scope for tx owned by owner.
func NewScope(tx *sql.Tx, owner any) *Scope {
	return &Scope{Tx: tx, owner: owner, touched: make(map[string]struct{})}
}

// OwnedBy reports whether the scope was opened by owner.
func (s *Scope) OwnedBy(owner any) bool {
	return s != nil && s.owner == owner
}

// Touch records that tables were written inside the scope.
func (s *Scope) Touch(tables ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tables {
		s.touched[t] = struct{}{}
	}
}

// Touched returns the written tables in sorted order.
func (s *Scope) Touched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.touched))
	for t := range s.touched {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// WithScope stores an open scope in context for downstream store usage.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	if scope == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, scope)
}

// From extracts the open scope from context if present.
func From(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(txKey).(*Scope)
	return scope, ok
}
