// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"fmt"
	"strings"
)

// DeriveVersion derives a package version string from a version-control tag
// and the commit distance since that tag.
//
// The rule is a raw string slice, not semantic-version arithmetic: the tag's
// first character is dropped (the conventional "v" prefix), and ".post<N>"
// is appended iff the commit distance N is greater than zero:
//
//	v2.5, 0 → 2.5
//	v2.5, 3 → 2.5.post3
//	v2.5.post4, 1 → 2.5.post4.post1
//
// Tags without the single-character prefix lose their leading character; use
// HasTagPrefix to detect that case before deriving.
func DeriveVersion(tag string, distance int) string {
	base := tag
	if len(tag) > 0 {
		base = tag[1:]
	}
	if distance > 0 {
		return fmt.Sprintf("%s.post%d", base, distance)
	}
	return base
}

// HasTagPrefix reports whether the tag carries the conventional "v" prefix
// that DeriveVersion strips. A false result means the derived version will
// silently drop a meaningful leading character.
func HasTagPrefix(tag string) bool {
	return strings.HasPrefix(tag, "v")
}
