package errs

import "fmt"

// ValidationError reports malformed caller input: bad hex colors,
// out-of-range explicit indices, non-permutation reorders and the like.
// The operation is rejected before any byte mutation happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// LoadError means the codec or rasterizer could not parse a byte buffer
// as a PDF. The in-flight operation is aborted with no state change.
type LoadError struct {
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("load failed: %s", e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ConsistencyError is fatal: the regenerated page array disagrees with the
// page count reported for the new buffer. Indicates a logic bug, never
// swallowed.
type ConsistencyError struct {
	DocID    string
	Pages    int
	Expected int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency error: document %s has %d pages in model, codec reports %d", e.DocID, e.Pages, e.Expected)
}

// BusinessRuleError rejects an operation that would violate a document
// invariant, e.g. deleting every page. The document is left unchanged.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}
