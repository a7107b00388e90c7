// Package inbox provides the verification side-channels used to resolve
// checkpoints: a pool of phone numbers receiving SMS, and email
// mailboxes. Both are reached through small JSON HTTP gateways.
package inbox
