// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"slices"

	"github.com/staranto/cargo2port/internal/lockfile"
)

// key is the identity of a package in the resolved set.
type key struct {
	name     string
	version  string
	checksum string
}

func keyOf(p lockfile.Package) key {
	return key{name: p.Name, version: p.Version, checksum: p.Checksum}
}

// Resolve merges manifests into one list sorted by name and version. Packages
// without a checksum are dropped. A package whose name, version and checksum
// were already seen is skipped, so the first manifest to list it wins.
func Resolve(manifests [][]lockfile.Package) []lockfile.Package {
	seen := make(map[key]struct{})
	var packages []lockfile.Package

	for _, manifest := range manifests {
		for _, p := range manifest {
			if !p.HasChecksum() {
				continue
			}
			k := keyOf(p)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			packages = append(packages, p)
		}
	}

	slices.SortFunc(packages, lockfile.Compare)

	return packages
}

// ResolveLockfiles is Resolve over the packages of each lockfile, in order.
func ResolveLockfiles(lockfiles []*lockfile.Lockfile) []lockfile.Package {
	manifests := make([][]lockfile.Package, 0, len(lockfiles))
	for _, lf := range lockfiles {
		if lf == nil {
			continue
		}
		manifests = append(manifests, lf.Packages)
	}
	return Resolve(manifests)
}

// Conflict is a name and version listed with more than one checksum.
type Conflict struct {
	Name      string
	Version   string
	Checksums []string
}

// Conflicts reports the entries of a resolved list that share a name and
// version but differ in checksum. Resolve keeps every such entry, which
// emits contradictory lines for the same crate.
func Conflicts(packages []lockfile.Package) []Conflict {
	var conflicts []Conflict

	for i := 0; i < len(packages); {
		j := i + 1
		for j < len(packages) &&
			packages[j].Name == packages[i].Name &&
			packages[j].Version == packages[i].Version {
			j++
		}
		if j-i > 1 {
			c := Conflict{Name: packages[i].Name, Version: packages[i].Version}
			for _, p := range packages[i:j] {
				c.Checksums = append(c.Checksums, p.Checksum)
			}
			conflicts = append(conflicts, c)
		}
		i = j
	}

	return conflicts
}
