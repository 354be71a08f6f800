// Package textutil normalizes typed spelling answers for comparison and
// sanitizes identifiers used in object-storage paths.
package textutil
