// Package mailer holds the concrete mail transports: SMTP for production,
// Amazon SES as an alternative, and a log sink for development. All of them
// satisfy notify.Transport.
package mailer
