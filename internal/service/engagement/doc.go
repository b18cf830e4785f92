// Package engagement implements what visitors and the administrator can do
// through the public API: subscribe, comment, send a contact message, have
// a visit tracked, and (administrator only) broadcast newsletters and
// announcements to every visitor.
//
// Notifications triggered by visitor actions are best effort: the primary
// action succeeds even when the mail transport does not. Broadcasts are
// persisted before any delivery is attempted and run to completion even if
// the caller goes away.
package engagement
