package archipelago

import (
	"fmt"

	"github.com/michael4d45/archipelago/internal/protocol"
)

// Version is an Archipelago version triple, such as the server's or the
// generator's version.
type Version struct {
	Major uint64
	Minor uint64
	Build uint64
}

// String formats the version the way Archipelago server logs do, "M.m.b".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

func versionFromNetwork(v protocol.NetworkVersion) Version {
	return Version{Major: v.Major, Minor: v.Minor, Build: v.Build}
}

func (v Version) toNetwork() protocol.NetworkVersion {
	return protocol.NetworkVersion{Major: v.Major, Minor: v.Minor, Build: v.Build, Class: "Version"}
}
