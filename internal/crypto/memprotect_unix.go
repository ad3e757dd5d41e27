//go:build linux || darwin

package crypto

import "syscall"

// LockMemory locks the byte slice's memory page(s) to prevent swapping to disk.
// Best-effort: failure is silently ignored (process may lack CAP_IPC_LOCK).
func LockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = syscall.Mlock(b)
}

// UnlockMemory unlocks previously locked memory pages.
func UnlockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = syscall.Munlock(b)
}
