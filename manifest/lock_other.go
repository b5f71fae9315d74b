//go:build !unix && !windows

package manifest

import (
	"os"
	"sync"
)

// Without flock the lock only excludes other stores in this process.
var (
	heldMu sync.Mutex
	held   = map[string]int{} // >0 shared holders, -1 exclusive
)

func tryLock(f *os.File, exclusive bool) (bool, error) {
	heldMu.Lock()
	defer heldMu.Unlock()
	n := held[f.Name()]
	switch {
	case exclusive && n == 0:
		held[f.Name()] = -1
		return true, nil
	case !exclusive && n >= 0:
		held[f.Name()] = n + 1
		return true, nil
	}
	return false, nil
}

func unlock(f *os.File) error {
	heldMu.Lock()
	defer heldMu.Unlock()
	switch n := held[f.Name()]; {
	case n <= 1:
		delete(held, f.Name())
	default:
		held[f.Name()] = n - 1
	}
	return nil
}
