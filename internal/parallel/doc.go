// Package parallel runs index-addressed work over contiguous shards with a
// join barrier, and collects errors so that the failure reported is the one
// a sequential run would have met first.
package parallel
