package aggregate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/existflow/protask/internal/model"
)

// Token is a one-shot filter request raised by clicking a KPI
type Token string

const (
	TokenCompleted  Token = Token(model.StatusCompleted)
	TokenInProgress Token = Token(model.StatusInProgress)
	TokenPending    Token = Token(model.StatusPending)
	TokenRejected   Token = Token(model.StatusRejected)
	TokenUrgent     Token = Token(model.PriorityUrgent)
	TokenDelayed    Token = "Delayed"
)

// Tokens lists every token a KPI card can raise
var Tokens = []Token{TokenCompleted, TokenInProgress, TokenPending, TokenRejected, TokenUrgent, TokenDelayed}

// ParseToken matches a token name case-insensitively
func ParseToken(s string) (Token, error) {
	if st, err := model.ParseStatus(s); err == nil {
		return Token(st), nil
	}
	for _, t := range Tokens {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown quick filter %q", s)
}

// Apply turns the token into list criteria. Quick filters are exclusive:
// the result holds only the filter the token selects.
func (t Token) Apply(Criteria) Criteria {
	switch t {
	case TokenCompleted, TokenInProgress, TokenPending, TokenRejected:
		return Criteria{Status: model.Status(t)}
	case TokenUrgent:
		return Criteria{Priority: model.PriorityUrgent}
	case TokenDelayed:
		return Criteria{Delayed: true}
	default:
		return Criteria{}
	}
}

// QuickFilter is a single-slot mailbox between the dashboard and the task list.
// Set fills the slot, Take empties it; a token is delivered at most once.
type QuickFilter struct {
	mu    sync.Mutex
	token *Token
}

// Set stores a token, replacing one that has not been read yet
func (q *QuickFilter) Set(t Token) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.token = &t
}

// Take returns the pending token and clears the slot
func (q *QuickFilter) Take() (Token, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.token == nil {
		return "", false
	}
	t := *q.token
	q.token = nil
	return t, true
}

// Pending reports whether a token is waiting, without consuming it
func (q *QuickFilter) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.token != nil
}

// Consume applies a pending quick filter to c. When nothing is pending it
// returns c unchanged and false.
func (c Criteria) Consume(q *QuickFilter) (Criteria, bool) {
	t, ok := q.Take()
	if !ok {
		return c, false
	}
	return t.Apply(c), true
}
