// Package domain defines the core domain models for mobsession.
//
// Domain models are pure values without any IO dependencies:
//
//   - Device: deterministic device profile bound to a username
//   - Account, Media: platform entities returned by lookups and feeds
//   - ChallengeType, Checkpoint: verification flow descriptors
//   - Errors: coded error kinds compared with errors.Is
package domain
