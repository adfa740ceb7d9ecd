// Copyright (C) 2021-2025, Persistence One. All rights reserved.
// Licensed under the Apache License, Version 2.0

package ledger_persistence_go

import "fmt"

// RequiredAppVersion is the oldest Persistence app release whose request and
// response shapes this client speaks.
var RequiredAppVersion = VersionInfo{Major: 1, Minor: 0, Patch: 0}

// VersionInfo is the version triple reported by the app, together with its
// test mode flag. Test mode builds are development firmware and are refused
// unless the session explicitly allows them.
type VersionInfo struct {
	TestMode bool
	Major    uint8
	Minor    uint8
	Patch    uint8
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns a positive number if v > o, 0 if v == o, or a negative
// number if v < o, using major.minor.patch precedence.
func (v VersionInfo) Compare(o VersionInfo) int {
	if v.Major != o.Major {
		return int(v.Major) - int(o.Major)
	}
	if v.Minor != o.Minor {
		return int(v.Minor) - int(o.Minor)
	}
	return int(v.Patch) - int(o.Patch)
}

func (v VersionInfo) AtLeast(o VersionInfo) bool {
	return v.Compare(o) >= 0
}
