// Package bamprovider provides indexed, region-restricted access to a BAM
// file from many goroutines at once.
//
// Every Iterator handed out by a Provider owns its own open file and its own
// copy of the index, so iterators can be used concurrently as long as each one
// is used by a single goroutine.
package bamprovider
