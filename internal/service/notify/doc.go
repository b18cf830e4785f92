// Package notify delivers composed messages through a mail transport.
//
// SendOne is the primitive: one synchronous attempt, failures logged and
// reported as false, never returned or panicked past the call. SendBatch
// walks a recipient sequence in order and calls SendOne per recipient, so a
// bad mailbox never stops the rest of a broadcast. The only way a batch
// aborts early is a rendering failure, which is a configuration problem
// rather than a delivery one.
package notify
