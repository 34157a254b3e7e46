// Package httpapi exposes the chat service as a JSON HTTP API.
//
// # Routes
//
// All /api routes require a bearer token; /healthz does not.
//
//	POST /api/conversations                    create a conversation
//	GET  /api/conversations                    list the caller's conversations
//	GET  /api/conversations/{id}               conversation plus messages
//	POST /api/conversations/{id}/messages      send a message, get the reply
//	PUT  /api/conversations/{id}/assessment    relink to an assessment
//
// # Error mapping
//
// Service errors map onto statuses: validation failures become 400,
// the merged not-found/unauthorized error becomes 404, and everything
// else becomes 500 with the detail kept in the server log.
package httpapi
