// Package errors provides structured error types used across the crawler so
// callers can branch on a failure class without parsing messages.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeNotFound,
//	    "target process vanished before namespace switch",
//	    cause,
//	    map[string]any{
//	        "pid":   pid,
//	        "kinds": "net,mnt",
//	    },
//	)
//
// Components wrap package-level sentinels as the Cause so that the usual
// errors.Is checks keep working through a StructuredError.
package errors
