package lookup

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrBookNotFound matches every failed book search, whatever the cause.
	ErrBookNotFound = errors.New("no book found")
	// ErrAuthorNotFound matches every failed author fetch.
	ErrAuthorNotFound = errors.New("author not found")
)

// Op names the remote call that failed.
type Op string

const (
	OpSearchBook  Op = "search_book"
	OpFetchAuthor Op = "fetch_author"
)

// Kind classifies why a remote call failed.
type Kind int

const (
	KindTransport Kind = iota // network error, timeout, cancelled context
	KindNoMatch               // 404 from the service
	KindStatus                // any other non-2xx
	KindDecode                // body was not the expected JSON
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindNoMatch:
		return "no_match"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// LookupError is returned by every Client operation.
type LookupError struct {
	Op     Op
	Kind   Kind
	Status int // HTTP status, 0 when no response was read
	Err    error
}

func (e *LookupError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Is lets callers keep treating any search failure as "not found" while the
// Kind still tells a missing book apart from a broken network.
func (e *LookupError) Is(target error) bool {
	switch target {
	case ErrBookNotFound:
		return e.Op == OpSearchBook
	case ErrAuthorNotFound:
		return e.Op == OpFetchAuthor
	}
	return false
}

// KindOf returns the Kind of a LookupError in err's chain.
func KindOf(err error) (Kind, bool) {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return 0, false
}

type AuthorFailure struct {
	ID  int
	Err error
}

// AuthorFetchError lists authors that were skipped by FetchAuthorNames.
type AuthorFetchError struct {
	Failures []AuthorFailure
}

func (e *AuthorFetchError) Error() string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = strconv.Itoa(f.ID)
	}
	return fmt.Sprintf("skipped %d author(s): %s", len(e.Failures), strings.Join(ids, ", "))
}

func (e *AuthorFetchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// SkippedIDs returns the IDs in the order they were requested.
func (e *AuthorFetchError) SkippedIDs() []int {
	ids := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.ID
	}
	return ids
}
