// Package events provides the event types and emitter used to hand work off
// from the request path to background handlers.
//
// Services emit events without knowing which handlers will process them. The
// review service emits a TypeReviewCompleted event after every committed
// review; the task package turns it into a background task for the
// achievement tracker.
package events
