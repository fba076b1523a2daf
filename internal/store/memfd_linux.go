//go:build linux

package store

import "golang.org/x/sys/unix"

const platformShmDir = "/dev/shm"

// probeMemfd checks that the kernel supports memfd_create by opening and
// closing a throwaway descriptor.
func probeMemfd() error {
	fd, err := unix.MemfdCreate("sscc-probe", unix.MFD_CLOEXEC)
	if err != nil {
		return err
	}
	return unix.Close(fd)
}

// newMemfd creates an unnamed memory-resident descriptor holding data. The
// caller owns the descriptor.
func newMemfd(name string, data []byte) (int, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		return -1, err
	}
	for off := 0; off < len(data); {
		n, err := unix.Write(fd, data[off:])
		if err != nil {
			unix.Close(fd)
			return -1, err
		}
		off += n
	}
	return fd, nil
}

func closeFd(fd int) {
	unix.Close(fd)
}
