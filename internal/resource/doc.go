// Package resource bounds the system resources a distributed run may consume:
// concurrent worker launches, launch rate and wire throughput.
package resource
