package tiledbio

import (
	"context"
	"errors"

	tiledb "github.com/TileDB-Inc/TileDB-Go"

	"github.com/sixy6e/lod-recon"
	"github.com/sixy6e/lod-recon/iodefs"
)

var ErrTileDBQuery = errors.New("tiledb query error")

// TileDBPointCloudReader implements iodefs.PointCloudReader over a sparse
// TileDB array built by pointCloudSchema: every source location is the URI
// of one such array, X/Y are the array's dimensions, and ReadBox narrows to
// box server-side via a subarray range, the same role GetXYBoxRanges.go's
// box-range-by-name plays in the teacher's metadata read path.
//
// A *tiledb.Context is reused across ReadBox calls from multiple goroutines;
// tiledb.Context is safe for concurrent use, matching this type's
// obligation under iodefs.PointCloudReader to be thread-safe (spec.md §5).
type TileDBPointCloudReader struct {
	ctx *tiledb.Context
}

// NewTileDBPointCloudReader builds a reader against the given tiledb
// context, which the caller has already built (cmd/lodrecon's
// buildTileDBContext).
func NewTileDBPointCloudReader(ctx *tiledb.Context) *TileDBPointCloudReader {
	return &TileDBPointCloudReader{ctx: ctx}
}

const initialBatch = 1 << 16 // 65536 points per read batch, grown on incomplete query

// ReadBox streams every point of the array at location whose (X, Y) falls
// inside box. Whenever a round fills the result buffer completely, the
// query is rerun from the start with a doubled buffer; points are yielded
// only from the first round that does not fill it, so each is yielded once.
func (r *TileDBPointCloudReader) ReadBox(ctx context.Context, location string, box lodrecon.AABB, yield func(iodefs.SourcePoint) error) error {
	array, err := ArrayOpen(r.ctx, location, tiledb.TILEDB_READ)
	if err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	defer array.Close()
	defer array.Free()

	batch := initialBatch
	for {
		n, err := r.readOnce(ctx, array, box, batch, yield)
		if err != nil {
			return err
		}
		if n < batch {
			return nil // query completed within this round
		}
		batch *= 2
	}
}

// readOnce runs a single TileDB query with a buffer sized for up to limit
// points and yields every point read, unless the buffer filled completely
// (a possibly truncated result), in which case nothing is yielded; it returns
// the number of points actually filled so ReadBox can detect truncation from
// an undersized buffer versus a genuinely exhausted result set.
func (r *TileDBPointCloudReader) readOnce(ctx context.Context, array *tiledb.Array, box lodrecon.AABB, limit int, yield func(iodefs.SourcePoint) error) (int, error) {
	query, err := tiledb.NewQuery(r.ctx, array)
	if err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_UNORDERED); err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}

	subarr, err := array.NewSubarray()
	if err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}
	defer subarr.Free()

	if err := subarr.AddRangeByName("X", tiledb.MakeRange(box.MinX, box.MaxX)); err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}
	if err := subarr.AddRangeByName("Y", tiledb.MakeRange(box.MinY, box.MaxY)); err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}
	if err := query.SetSubarray(subarr); err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}

	xs := make([]float64, limit)
	ys := make([]float64, limit)
	zs := make([]float64, limit)
	classes := make([]uint8, limit)
	quality := make([]int32, limit)

	if _, err := query.SetDataBuffer("X", xs); err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}
	if _, err := query.SetDataBuffer("Y", ys); err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}
	if _, err := query.SetDataBuffer("Z", zs); err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}
	if _, err := query.SetDataBuffer("Classification", classes); err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}
	if _, err := query.SetDataBuffer("SourceQuality", quality); err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}

	if err := query.Submit(); err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}

	elems, err := query.ResultBufferElements()
	if err != nil {
		return 0, errors.Join(ErrTileDBQuery, err)
	}
	n := int(elems["X"][1])
	if n >= limit {
		return n, nil // possibly truncated: ReadBox retries with a larger buffer
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		sp := iodefs.SourcePoint{
			X: xs[i], Y: ys[i], Z: zs[i],
			Classification: lodrecon.Classification(classes[i]),
			SourceQuality:  int(quality[i]),
		}
		if err := yield(sp); err != nil {
			return n, err
		}
	}
	return n, nil
}
