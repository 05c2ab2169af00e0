package storage

import (
	"fmt"

	"github.com/ruteri/storage-provisioning-backend/interfaces"
)

// allowedPathChars is the full set of characters permitted in a tenant path
// segment: ASCII letters and digits, dash, underscore, and common accented
// Latin letters. Everything else is rejected, which keeps tenant names safe
// to join into filesystem paths and to pass as external command arguments.
const allowedPathChars = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"-_" +
	"àáâäæãåāçćčèéêëēėęîïíīįìłñńôöòóœøōõßśšûüùúūÿžźż" +
	"ÀÁÂÄÆÃÅĀÇĆČÈÉÊËĒĖĘÎÏÍĪĮÌŁÑŃÔÖÒÓŒØŌÕŚŠÛÜÙÚŪŸŽŹŻ"

var allowedPathRunes = func() map[rune]bool {
	set := make(map[rune]bool, len(allowedPathChars))
	for _, r := range allowedPathChars {
		set[r] = true
	}
	return set
}()

// ValidSegment reports whether every character of segment belongs to the
// allowed set. The empty segment is valid.
func ValidSegment(segment string) bool {
	for _, r := range segment {
		if !allowedPathRunes[r] {
			return false
		}
	}
	return true
}

// checkSegments validates every path segment, short-circuiting before any
// filesystem or dataset access happens.
func checkSegments(segments ...string) error {
	for _, segment := range segments {
		if !ValidSegment(segment) {
			return fmt.Errorf("%w: %q", interfaces.ErrInvalidPath, segment)
		}
	}
	return nil
}
