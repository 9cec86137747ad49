// Package server exposes a contactbook.Book over HTTP with JSON bodies.
//
// Routes:
//
//	GET    /contacts?page=N          list contacts, 10 per page by default
//	POST   /contacts                 create {"name", "email"}
//	PUT    /contacts                 rename {"email", "name"}
//	PATCH  /contacts/email           change email {"email", "new_email"}
//	DELETE /contacts?email=E         delete
//	GET    /search?key=Q&page=N      prefix search over names and emails
//	GET    /live, /ready             health checks
//	GET    /metrics                  Prometheus metrics
//
// Contact and search routes require a bearer token when tokens are
// configured and are subject to the request rate limit. Validation failures
// return 400 with a field → message object, e.g.
// {"email": "Provide a valid email address"}.
package server
