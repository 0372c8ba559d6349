// Package notify delivers two-factor codes by email.
//
// [ResendSender] posts to the Resend HTTP API. [LogSender] records that a
// code would have been sent without sending it and reports missing_config,
// which lets development builds fall back to debug codes. [Throttled] caps
// outbound mail with golang.org/x/time/rate, globally and per recipient.
//
// Senders never log or return the code itself.
package notify
