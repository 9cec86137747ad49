// Package contactbook provides a contact book with prefix search over names
// and emails.
//
// A Book keeps contact records in a store.Store and mirrors them into an
// in-memory index.ContactIndex. The index is rebuilt from the store when the
// Book is opened and then updated after every successful store write, so
// search never touches the store.
//
// # Quick Start
//
//	ctx := context.Background()
//	book, _ := contactbook.Open(ctx, store.NewMemoryStore())
//	defer book.Close()
//
//	book.Create(ctx, "Alice", "alice@example.com")
//	res, _ := book.Search(ctx, "ali", "1")
//	for _, e := range res.Items {
//	    fmt.Println(e.Name, e.Email)
//	}
//
// # Durability
//
// store.MemoryStore loses everything on restart. For durable books use
// store.SnapshotStore over a blobstore.BlobStore (local disk, S3, MinIO) or
// the DynamoDB store in store/dynamodb.
//
// # Errors
//
// Operations return ErrNotFound, ErrConflict, ErrInvalidArgument, ErrClosed
// or a *ValidationError carrying per-field messages. Test with errors.Is and
// errors.As.
package contactbook
