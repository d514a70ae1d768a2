// Package goid extracts a stable, hashable identity for the calling
// goroutine. Go has no public API for this (unlike std::thread::id), so the
// identity is recovered from the first line of runtime.Stack's output.
//
// Credits -> github.com/kolkov/racedetector, internal/race/api/goid_fallback.go
//
// The assembly / runtime-offset-peeking fast path that the same file
// provides on some platforms is deliberately not ported here: it is exactly
// the kind of architecture-and-version-specific intrinsic adapter that is
// out of scope for this module, mirroring how it treats the 128-bit CAS
// instruction.
package goid

import "runtime"

// ID identifies a goroutine for the lifetime of that goroutine. Values are
// not reused while the goroutine that produced them is alive, but Go itself
// may reuse a numeric goroutine id after the original goroutine exits; ID
// must therefore only be used to key data that is itself scoped to the
// owning goroutine's lifetime (which is exactly how threadlocal.Local uses
// it).
type ID int64

// Current returns the identity of the calling goroutine.
//
// Performance: dominated by the runtime.Stack call (a few hundred
// nanoseconds). threadlocal does not cache the result: it is paid on
// every Local call, since there is no portable way to cache it in actual
// TLS. Callers that need this on a hot path should cache the ID themselves
// for the lifetime of the goroutine.
func Current() ID {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return ID(parse(buf[:n]))
}

// parse extracts the numeric goroutine id from a buffer formatted like
// "goroutine 123 [running]:...". Returns 0 if the expected prefix isn't
// found, which can only happen if the runtime ever changes this format.
func parse(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var id int64
	for i := len(prefix); i < len(buf); i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
