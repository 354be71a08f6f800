// Package trigger decides when sync passes run: on connectivity regained,
// on a periodic interval while online, and on explicit manual request.
package trigger
