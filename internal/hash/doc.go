// Package hash provides the checksum guarding snapshot payloads.
//
// Snapshots use CRC32-Castagnoli, which the Go runtime accelerates with
// SSE4.2 on x86 and the CRC extension on ARM.
package hash
