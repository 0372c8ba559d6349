// Package httpapi serves the club auth endpoints under /api/auth on a
// gorilla/mux router. Handlers decode JSON, call the Engine and translate
// its errors into status codes and cookies. Responses never reveal whether
// an email exists, and 401 messages are generic.
package httpapi
