// Package search implements spec.md §6's directory/object-store trawling
// for the reconstruct-batch CLI command: given a root URI, find every
// source config file and every footprint vector file underneath it without
// the caller naming each one individually, the same VFS-based recursive
// trawl the teacher's search/search.go performs for *.gsf files.
package search

import (
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// trawl recursively walks uri via vfs, collecting every file whose basename
// matches pattern. It is the teacher's trawl verbatim in spirit: same
// VFS.List/filepath.Match/recurse shape, generalized to accept the VFS and
// pattern the caller already resolved rather than baking *.gsf in.
func trawl(vfs *tiledb.VFS, pattern, uri string, items []string) ([]string, error) {
	dirs, files, err := vfs.List(uri)
	if err != nil {
		return items, err
	}

	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err != nil {
			return items, err
		}
		if match {
			items = append(items, file)
		}
	}

	for _, dir := range dirs {
		items, err = trawl(vfs, pattern, dir, items)
		if err != nil {
			return items, err
		}
	}

	return items, nil
}

// FindByPattern recursively searches uri for files matching pattern (glob
// syntax, matched against the basename only), through a VFS on a tiledb
// context it builds itself, so object-store URIs (s3://, etc) work the same
// as a local path. configURI, if non-empty, is loaded for the VFS's storage
// credentials the way FindGsf's config_uri parameter is.
func FindByPattern(uri, pattern, configURI string) ([]string, error) {
	var (
		cfg *tiledb.Config
		err error
	)

	if configURI == "" {
		cfg, err = tiledb.NewConfig()
	} else {
		cfg, err = tiledb.LoadConfig(configURI)
	}
	if err != nil {
		return nil, err
	}
	defer cfg.Free()

	ctx, err := tiledb.NewContext(cfg)
	if err != nil {
		return nil, err
	}
	defer ctx.Free()

	vfs, err := tiledb.NewVFS(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer vfs.Free()

	return trawl(vfs, pattern, uri, make([]string, 0))
}

// FindSourceConfigs recursively finds every YAML point-cloud source
// descriptor under uri (spec.md §3's PointCloudSource, loaded by
// source.LoadSources).
func FindSourceConfigs(uri, configURI string) ([]string, error) {
	return FindByPattern(uri, "*.source.yaml", configURI)
}

// FindFootprintSets recursively finds every footprint vector file (a
// GeoPackage layer in the reference deployment) under uri, one per batch
// job submitted to schedule.Scheduler.
func FindFootprintSets(uri, configURI string) ([]string, error) {
	return FindByPattern(uri, "*.gpkg", configURI)
}
