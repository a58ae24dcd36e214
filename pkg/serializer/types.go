// Package serializer provides reading and writing of structured documents
// in the formats the platform exchanges: JSON for machine consumers, YAML
// for the configuration documents themselves, and a flattened table view
// for terminal output.
//
// Usage:
//
//	writer := serializer.NewWriter(serializer.FormatJSON, os.Stdout)
//	defer writer.Close()
//	if err := writer.Serialize(ctx, results); err != nil {
//		return err
//	}
package serializer

import "context"

// Serializer serializes a value to an output destination.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Closer is an optional interface Serializers implement when they hold
// resources such as file handles.
type Closer interface {
	Close() error
}
