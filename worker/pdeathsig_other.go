//go:build !linux

package worker

func setParentDeathSignal() error { return nil }
