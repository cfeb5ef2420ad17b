package acl

import "errors"

// ErrMalformedRule is returned by Compile when a rule's prefix masks are
// not contiguous from the MSB, or a port range has From > To.
var ErrMalformedRule = errors.New("acl: malformed rule")

// ErrClassOverflow is returned by Compile when a dimension's equivalence
// classes would not fit in a uint32, which the remap/value-table layer
// assumes throughout.
var ErrClassOverflow = errors.New("acl: too many equivalence classes")
