// Package conv provides checked integer conversions for the length fields
// of persisted blocks, where a silent wrap would corrupt data.
package conv
