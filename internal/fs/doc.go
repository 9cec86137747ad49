// Package fs abstracts the file operations used by blobstore.LocalStore so
// tests can inject I/O failures.
//
//   - [LocalFS]: the os package
//   - [FaultyFS]: wraps another FileSystem and fails writes, syncs or
//     renames on files whose name contains a configured pattern
package fs
