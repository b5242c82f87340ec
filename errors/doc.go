// Package errors provides structured error types for the resourced library.
//
// Errors are categorized by Op (which registry operation failed) and Kind
// (error category). The Error type includes the resource id and cause chain.
//
// Use the convenience constructors for the common patterns:
//
//	err := errors.InvalidInput(errors.OpRegister, "nil resource")
//	err := errors.StillReferenced(id, 3)
//	err := errors.NotWeakReferenceable("int")
//
// All errors implement the standard error interface and support errors.Is/As.
// Matching with errors.Is compares Kind, and Op when the target sets one:
//
//	if errors.Is(err, &errors.Error{Kind: errors.KindStillReferenced}) {
//	    // caller still holds an advisory reference
//	}
package errors
