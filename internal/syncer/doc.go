// Package syncer drains the local practice queue into the remote API and
// object storage. A pass uploads due audio clips first, then the attempts
// that reference them, updating the spaced-repetition schedule for each
// confirmed attempt. Passes are single-flight and retry with exponential
// backoff, marking items terminal once the retry budget or a non-retryable
// error is hit.
package syncer
