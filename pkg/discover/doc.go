// Package discover enumerates account directories in the configuration
// repository and extracts the metadata CI pipelines need to build their
// job matrices: account id, environment, rule counts, and deployment
// ordering.
package discover
