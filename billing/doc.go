// Package billing implements the subscription and payment core of the
// membership backend: the plan catalog, the payment gateway client, the
// subscription ledger with its named state transitions, and the three
// entry points that drive it: paid checkout, payment webhook
// reconciliation, and free-plan activation.
//
// The ledger guarantees at most one active subscription per user at any
// time. Every activation cancels the user's prior active rows and inserts
// the replacement inside a single transaction; the webhook path records
// the confirming payment in the same transaction, so a member is never
// activated without their payment nor charged without a membership.
//
// Money state is authoritative at the gateway until the webhook confirms
// it locally: the pending ledger row written during checkout is a
// convenience cache, and its write failure never fails checkout.
package billing
