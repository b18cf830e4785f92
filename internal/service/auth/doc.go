// Package auth implements bearer-token authentication for administrator
// principals: password login, per-request token verification, staff
// authorization and password changes.
//
// A request is either Valid(principal) or Rejected(reason) after a single
// Authenticate call; there are no retries or lockouts at this layer.
package auth
