// Package errors provides structured error types for programmatic error
// handling across the platform, notably for classifying TFE API failures.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeRateLimitExceeded,
//	    "failed to queue workspace run",
//	    cause,
//	    map[string]any{
//	        "workspace": workspaceName,
//	        "account":   accountID,
//	    },
//	)
package errors
