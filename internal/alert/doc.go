// Package alert delivers operational alerts to admin recipients.
//
// Delivery is fire-and-forget: Notify returns immediately and failures are
// only logged, so the ingestion path never blocks on the alert channel.
// Emitters are injected at construction; there is no process-wide singleton.
package alert
