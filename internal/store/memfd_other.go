//go:build !linux

package store

import "errors"

const platformShmDir = "/dev/shm"

var errMemfdUnsupported = errors.New("memfd_create not supported on this platform")

func probeMemfd() error {
	return errMemfdUnsupported
}

func newMemfd(name string, data []byte) (int, error) {
	return -1, errMemfdUnsupported
}

func closeFd(fd int) {}
