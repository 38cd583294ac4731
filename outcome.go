package ygggo_conn

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Outcome reports a best-effort operation. It is deliberately not an error:
// Close and Rollback always complete, and their failures are only detail.
type Outcome struct {
	op   string
	errs *multierror.Error
}

// Op names the operation that produced the outcome.
func (o Outcome) Op() string { return o.op }

// OK reports whether every step succeeded.
func (o Outcome) OK() bool { return o.errs.ErrorOrNil() == nil }

// Detail returns the aggregated step failures, or nil.
func (o Outcome) Detail() error { return o.errs.ErrorOrNil() }

// Failures is the number of steps that failed.
func (o Outcome) Failures() int {
	if o.errs == nil {
		return 0
	}
	return len(o.errs.Errors)
}

func (o Outcome) String() string {
	if o.OK() {
		return o.op + ": ok"
	}
	return fmt.Sprintf("%s: %d step(s) failed: %v", o.op, o.Failures(), o.errs.Errors)
}

func (o *Outcome) add(err error) {
	if err != nil {
		o.errs = multierror.Append(o.errs, err)
	}
}
