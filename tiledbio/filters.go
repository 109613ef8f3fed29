// Package tiledbio is the TileDB-backed implementation of the iodefs
// collaborator interfaces: point clouds as a sparse X/Y array, rasters as a
// dense array, and meshes as a sparse vertex array plus a sparse face array
// whose var-length int32 attribute carries face topology. It follows the teacher's array-per-concern layout
// (schema.go/tiledb.go) but themed for point/raster/mesh records instead of
// GSF ping/beam records.
package tiledbio

import (
	"errors"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	stgpsr "github.com/yuin/stagparser"
)

var (
	ErrAddFilters   = errors.New("error adding filter to filter list")
	ErrCreateSchema = errors.New("error creating tiledb schema")
	ErrCreateAttr   = errors.New("error creating tiledb attribute")
)

// ArrayOpen opens a tiledb array at uri in the given mode.
func ArrayOpen(ctx *tiledb.Context, uri string, mode tiledb.QueryType) (*tiledb.Array, error) {
	array, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return nil, err
	}
	if err := array.Open(mode); err != nil {
		array.Free()
		return nil, err
	}
	return array, nil
}

// AddFilters sequentially appends compression filters to a filter pipeline.
func AddFilters(filterList *tiledb.FilterList, filters ...*tiledb.Filter) error {
	for _, f := range filters {
		if err := filterList.AddFilter(f); err != nil {
			return errors.Join(ErrAddFilters, err)
		}
	}
	return nil
}

// AttachFilters sets the same pipeline on every given attribute.
func AttachFilters(filterList *tiledb.FilterList, attrs ...*tiledb.Attribute) error {
	for _, a := range attrs {
		if err := a.SetFilterList(filterList); err != nil {
			return err
		}
	}
	return nil
}

// ZstdFilter initialises the zstandard compression filter at the given level.
func ZstdFilter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_ZSTD)
	if err != nil {
		return nil, err
	}
	if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level); err != nil {
		filt.Free()
		return nil, err
	}
	return filt, nil
}

// GzipFilter initialises the deflate compression filter at the given level.
func GzipFilter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_GZIP)
	if err != nil {
		return nil, err
	}
	if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level); err != nil {
		filt.Free()
		return nil, err
	}
	return filt, nil
}

// Lz4Filter initialises the LZ4 compression filter at the given level.
func Lz4Filter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_LZ4)
	if err != nil {
		return nil, err
	}
	if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level); err != nil {
		filt.Free()
		return nil, err
	}
	return filt, nil
}

// RleFilter initialises the run-length-encoding filter. level is accepted
// for tag-symmetry with the other filter constructors but is ignored by
// TileDB for this filter.
func RleFilter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_RLE)
	if err != nil {
		return nil, err
	}
	if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level); err != nil {
		filt.Free()
		return nil, err
	}
	return filt, nil
}

// Bzip2Filter initialises the Burrows-Wheeler compression filter.
func Bzip2Filter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_BZIP2)
	if err != nil {
		return nil, err
	}
	if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level); err != nil {
		filt.Free()
		return nil, err
	}
	return filt, nil
}

// BitWidthReductionFilter initialises the bit-width-reduction filter with
// the given window size (-1 for TileDB's default).
func BitWidthReductionFilter(ctx *tiledb.Context, window int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_BIT_WIDTH_REDUCTION)
	if err != nil {
		return nil, err
	}
	if err := filt.SetOption(tiledb.TILEDB_BIT_WIDTH_MAX_WINDOW, window); err != nil {
		filt.Free()
		return nil, err
	}
	return filt, nil
}

// buildFilterPipeline builds a *tiledb.FilterList from parsed `filters` tag
// definitions, in the order given, the same dispatch tiledb.go's CreateAttr
// performs inline. Condensed into a table here since this package only ever
// needs a handful of filter kinds across three array kinds, not the dozen
// field-specific pipelines the teacher's sensor structs require.
func buildFilterPipeline(ctx *tiledb.Context, defs []stgpsr.Definition) (*tiledb.FilterList, error) {
	fl, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return nil, errors.Join(ErrCreateAttr, err)
	}

	for _, d := range defs {
		var (
			filt *tiledb.Filter
			ferr error
		)
		switch d.Name() {
		case "zstd":
			level, _ := d.Attribute("level")
			filt, ferr = ZstdFilter(ctx, levelOf(level, 16))
		case "gzip":
			level, _ := d.Attribute("level")
			filt, ferr = GzipFilter(ctx, levelOf(level, 6))
		case "lz4":
			level, _ := d.Attribute("level")
			filt, ferr = Lz4Filter(ctx, levelOf(level, 6))
		case "rle":
			level, _ := d.Attribute("level")
			filt, ferr = RleFilter(ctx, levelOf(level, -1))
		case "bzip2":
			level, _ := d.Attribute("level")
			filt, ferr = Bzip2Filter(ctx, levelOf(level, 6))
		case "bitw":
			win, _ := d.Attribute("window")
			filt, ferr = BitWidthReductionFilter(ctx, levelOf(win, -1))
		case "bysh":
			filt, ferr = tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_BYTESHUFFLE)
		case "bish":
			filt, ferr = tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_BITSHUFFLE)
		default:
			continue
		}
		if ferr != nil {
			fl.Free()
			return nil, errors.Join(ErrAddFilters, ferr)
		}
		if err := fl.AddFilter(filt); err != nil {
			filt.Free()
			fl.Free()
			return nil, errors.Join(ErrAddFilters, err)
		}
		filt.Free()
	}
	return fl, nil
}

func levelOf(attr any, fallback int32) int32 {
	if attr == nil {
		return fallback
	}
	if v, ok := attr.(int64); ok {
		return int32(v)
	}
	return fallback
}
