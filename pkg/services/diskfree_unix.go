//go:build unix

package services

import "golang.org/x/sys/unix"

// diskFree returns the bytes available to an unprivileged caller on the
// volume containing path.
func diskFree(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
