// Package platform implements the platform-side collaborators of a
// session: account lookup, the web checkpoint challenge and the user media
// feed. Every call goes through service.Session, so cookies, signing and
// proxy settings of the session apply.
package platform
