package instances

import "github.com/pkg/errors"

var (
	// ErrEmptyGroup is returned when a group is created without instances.
	ErrEmptyGroup = errors.New("new group can't be empty")
	// ErrDuplicateID is returned when two instances of a group share an id.
	ErrDuplicateID = errors.New("instances must have unique ids")
	// ErrInstanceIDRange is returned for an instance id that does not fit in
	// 32 bits, the range the store can hold.
	ErrInstanceIDRange = errors.New("instance id out of range")
	// ErrDuplicateName is returned when two instances of a group share a name.
	ErrDuplicateName = errors.New("instances must have unique names")

	// ErrNotFound means no group matched a query.
	ErrNotFound = errors.New("no matching instance group")
	// ErrAmbiguous means more than one group matched a query that needs exactly one.
	ErrAmbiguous = errors.New("ambiguous instance group selection")

	// ErrGroupExists is returned when adding a group whose name is taken.
	ErrGroupExists = errors.New("instance group name already in use")
	// ErrInstanceIDInUse is returned when adding a group whose ids are taken.
	ErrInstanceIDInUse = errors.New("instance id already in use")

	// ErrStore wraps failures to read, parse or write the persisted store.
	ErrStore = errors.New("instance database store error")
)

// ErrMalformedDocument is returned when a persisted group document is
// missing a required field or holds a value of the wrong shape.
var ErrMalformedDocument = errors.New("malformed instance group document")

// StoreError records a failure to read or write the persisted store.
// It matches ErrStore with errors.Is and unwraps to the underlying cause.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports ErrStore as a match.
func (e *StoreError) Is(target error) bool { return target == ErrStore }
