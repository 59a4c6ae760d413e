// Package flowtoken is the flow-token validation extension point. A rejected
// token short-circuits the exchange with status 427 before the dispatcher
// runs; the rejection response is still encrypted, because the session keys
// are already recovered at that point.
package flowtoken

import (
	"bufio"
	"os"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"

	"github.com/xenking/flows-checkout/internal/protocol"
)

// Validator decides whether a flow token may proceed. Implementations return
// a *protocol.Error with StatusFlowRejected to disable the flow for the user.
type Validator interface {
	Validate(token string) error
}

// AllowAll accepts every flow token. It is the reference behaviour when no
// token policy is configured.
type AllowAll struct{}

// Validate always accepts.
func (AllowAll) Validate(string) error { return nil }

// filterFPR keeps accidental rejections of healthy tokens rare; a false
// positive disables one flow session, it does not corrupt anything.
const filterFPR = 0.0001

// Blocklist rejects flow tokens that appear on a revocation list. The list
// is held in a bloom filter sized for large revocation sets; after loading
// the filter is read-only, so lookups need no locking.
type Blocklist struct {
	filter *bloom.BloomFilter
}

// NewBlocklist builds a Blocklist from the given tokens.
func NewBlocklist(tokens []string) *Blocklist {
	n := uint(len(tokens))
	if n == 0 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, filterFPR)
	for _, t := range tokens {
		filter.AddString(t)
	}
	return &Blocklist{filter: filter}
}

// LoadBlocklist reads a revocation file with one flow token per line. Empty
// lines and lines starting with '#' are skipped.
func LoadBlocklist(path string) (*Blocklist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open blocklist")
	}
	defer f.Close()

	var tokens []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read blocklist")
	}
	return NewBlocklist(tokens), nil
}

// Validate rejects empty and revoked tokens.
func (b *Blocklist) Validate(token string) error {
	if token == "" || b.filter.TestString(token) {
		return rejectToken()
	}
	return nil
}

// ReplayGuard rejects a flow token the second time it is seen. It suits
// one-shot flows where every exchange carries a fresh token; flows that
// reuse one token across screens must not enable it. Seen tokens live in a
// bloom filter, so memory stays bounded at the price of a small false
// positive rate rejecting a fresh token.
type ReplayGuard struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewReplayGuard sizes the seen-token filter for the expected number of
// distinct tokens over the process lifetime.
func NewReplayGuard(capacity uint) *ReplayGuard {
	if capacity == 0 {
		capacity = 1
	}
	return &ReplayGuard{filter: bloom.NewWithEstimates(capacity, filterFPR)}
}

// Validate records the token and rejects any later sighting of it.
func (g *ReplayGuard) Validate(token string) error {
	if token == "" {
		return rejectToken()
	}
	g.mu.Lock()
	seen := g.filter.TestOrAddString(token)
	g.mu.Unlock()
	if seen {
		return rejectToken()
	}
	return nil
}

// Chain applies validators in order and fails on the first rejection.
type Chain []Validator

// Validate runs every validator until one rejects.
func (c Chain) Validate(token string) error {
	for _, v := range c {
		if err := v.Validate(token); err != nil {
			return err
		}
	}
	return nil
}

func rejectToken() error {
	return protocol.NewError(protocol.StatusFlowRejected,
		"This is an invalid data exchange request message from endpoint")
}
