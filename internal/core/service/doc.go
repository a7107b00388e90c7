// Package service implements the session lifecycle of the mobile client.
//
// This package contains:
//
//   - Session: identity, cookie validity check, proxy and logout
//   - Login: the credential exchange followed by the client bootstrap calls
//   - Establisher: reuse of stored cookies, fresh login, challenge fallback
//   - ChallengeResolver: phone and email verification of a checkpoint
//
// Network access, cookie persistence and verification side-channels are
// supplied through the interfaces declared here, so every flow can be
// exercised with in-memory fakes.
package service
