// Package notify delivers fire-and-forget events such as a finished document
// or an engaged investor to an external notification service.
//
// Delivery is best effort. Callers never observe failures: Async logs them
// and drops the event.
package notify
