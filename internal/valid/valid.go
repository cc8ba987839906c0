package valid

import (
	"fmt"
	"net/http"
	"regexp"
)

var (
	// event IDs are catalog qualified e.g., 2013p407387, emsc20161113_0000048, usp0007m27
	eid, eidErr = regexp.Compile(`^[0-9a-zA-Z_]{1,32}$`)
	// source network codes e.g., nz, jp, us
	src, srcErr = regexp.Compile(`^[a-z]{2,12}$`)
)

type Validator func(string) error

// implements weft.Error
type Error struct {
	Code int
	Err  error
}

func (s Error) Error() string {
	if s.Err == nil {
		return "<nil>"
	}
	return s.Err.Error()
}

func (s Error) Status() int {
	return s.Code
}

// EventID for validating catalog event identifiers.
func EventID(s string) error {
	if eidErr != nil {
		return eidErr
	}

	if eid.MatchString(s) {
		return nil
	}

	return Error{Code: http.StatusBadRequest, Err: fmt.Errorf("invalid eventid: %s", s)}
}

// Source for validating source network codes.
func Source(s string) error {
	if srcErr != nil {
		return srcErr
	}

	if src.MatchString(s) {
		return nil
	}

	return Error{Code: http.StatusBadRequest, Err: fmt.Errorf("invalid source: %s", s)}
}
