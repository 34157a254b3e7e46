// Package auth supplies the authenticated caller identity for the chat core.
//
// Tokens are HS256 JWTs with the owner's user ID in the "sub" claim.
// JWTVerifier verifies and issues tokens; HTTPAuthMiddleware binds the
// verified identity to the request context, where handlers retrieve it with
// FromContext.
//
// How the token was originally issued (login, credential checks) is the
// account subsystem's concern, not this package's.
package auth
