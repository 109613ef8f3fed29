package tiledbio

import (
	"errors"
	"math"
	"reflect"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	stgpsr "github.com/yuin/stagparser"
)

// pointRecord mirrors iodefs.SourcePoint, struct-tagged for schemaAttrs the
// way the teacher tags its ping/beam structs in decode/params.go. X and Y
// are the array's dimensions (ftype=dim) and are never themselves turned
// into tiledb attributes.
type pointRecord struct {
	X              float64 `tiledb:"dtype=float64,ftype=dim"`
	Y              float64 `tiledb:"dtype=float64,ftype=dim"`
	Z              float64 `tiledb:"dtype=float64,ftype=attr" filters:"bysh,zstd(level=16)"`
	Classification uint8   `tiledb:"dtype=uint8,ftype=attr" filters:"bysh,zstd(level=9)"`
	SourceQuality  int32   `tiledb:"dtype=int32,ftype=attr" filters:"zstd(level=9)"`
}

// meshVertexRecord is one row of the sparse vertex array a TileDBMeshWriter
// persists: a footprint id plus an ordinal vertex index as dimensions, XYZ
// as attributes. Face topology (which vertex indices make up each face)
// does not fit a flat row per vertex, so it is carried as a var-length int32
// attribute per face row, next to that face's surface tag, in a second,
// smaller sparse array (see faceRecord below).
type meshVertexRecord struct {
	FootprintID string  `tiledb:"dtype=string,ftype=dim"`
	VertexIndex int32   `tiledb:"dtype=int32,ftype=dim"`
	X           float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	Y           float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	Z           float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
}

type faceRecord struct {
	FootprintID string `tiledb:"dtype=string,ftype=dim"`
	FaceIndex   int32  `tiledb:"dtype=int32,ftype=dim"`
	Surface     int32  `tiledb:"dtype=int32,ftype=attr" filters:"zstd(level=9)"`
	Indices     []int32 `tiledb:"dtype=int32,ftype=attr,var" filters:"bysh,zstd(level=16)"`
}

// rasterCellRecord backs the dense ImageMap array: one row per band per
// cell, col/row as dimensions.
type rasterCellRecord struct {
	Col   int32   `tiledb:"dtype=int32,ftype=dim"`
	Row   int32   `tiledb:"dtype=int32,ftype=dim"`
	Value float64 `tiledb:"dtype=float64,ftype=attr" filters:"bysh,zstd(level=16)"`
}

// schemaAttrs walks t's exported fields via reflection and the parsed
// `tiledb`/`filters` struct tags, adding one tiledb.Attribute per non-
// dimension field to schema, the same pattern as the teacher's
// schemaAttrs in schema.go.
func schemaAttrs(t any, schema *tiledb.ArraySchema, ctx *tiledb.Context) error {
	values := reflect.ValueOf(t).Elem()
	types := values.Type()

	filtDefs, err := stgpsr.ParseStruct(t, "filters")
	if err != nil {
		return errors.Join(ErrCreateSchema, err)
	}
	tdbDefs, err := stgpsr.ParseStruct(t, "tiledb")
	if err != nil {
		return errors.Join(ErrCreateSchema, err)
	}

	for i := 0; i < values.NumField(); i++ {
		name := types.Field(i).Name

		fieldTdb := make(map[string]stgpsr.Definition)
		for _, d := range tdbDefs[name] {
			fieldTdb[d.Name()] = d
		}

		def, ok := fieldTdb["dtype"]
		if !ok {
			return errors.Join(ErrCreateAttr, errors.New("dtype tag not found on field "+name))
		}
		ftypeDef, ok := fieldTdb["ftype"]
		if !ok {
			return errors.Join(ErrCreateAttr, errors.New("ftype tag not found on field "+name))
		}
		ftype, _ := ftypeDef.Attribute("ftype")
		if ftype == "dim" {
			continue
		}
		dtypeVal, _ := def.Attribute("dtype")

		if err := createAttr(ctx, schema, name, dtypeVal.(string), isVar(fieldTdb), filtDefs[name]); err != nil {
			return err
		}
	}
	return nil
}

func isVar(fieldTdb map[string]stgpsr.Definition) bool {
	_, ok := fieldTdb["var"]
	return ok
}

// createAttr builds one tiledb.Attribute, attaches its filter pipeline, and
// adds it to schema; the dtype switch mirrors the teacher's CreateAttr.
func createAttr(ctx *tiledb.Context, schema *tiledb.ArraySchema, name, dtype string, isVar bool, filters []stgpsr.Definition) error {
	var tdbType tiledb.Datatype
	switch dtype {
	case "int8":
		tdbType = tiledb.TILEDB_INT8
	case "uint8":
		tdbType = tiledb.TILEDB_UINT8
	case "int16":
		tdbType = tiledb.TILEDB_INT16
	case "uint16":
		tdbType = tiledb.TILEDB_UINT16
	case "int32":
		tdbType = tiledb.TILEDB_INT32
	case "uint32":
		tdbType = tiledb.TILEDB_UINT32
	case "int64":
		tdbType = tiledb.TILEDB_INT64
	case "uint64":
		tdbType = tiledb.TILEDB_UINT64
	case "float32":
		tdbType = tiledb.TILEDB_FLOAT32
	case "float64":
		tdbType = tiledb.TILEDB_FLOAT64
	case "string":
		tdbType = tiledb.TILEDB_STRING_UTF8
	default:
		return errors.Join(ErrCreateAttr, errors.New("unsupported dtype "+dtype))
	}

	attr, err := tiledb.NewAttribute(ctx, name, tdbType)
	if err != nil {
		return errors.Join(ErrCreateAttr, err)
	}
	defer attr.Free()

	if isVar {
		if err := attr.SetCellValNum(tiledb.TILEDB_VAR_NUM); err != nil {
			return errors.Join(ErrCreateAttr, err)
		}
	}

	fl, err := buildFilterPipeline(ctx, filters)
	if err != nil {
		return err
	}
	defer fl.Free()

	if err := AttachFilters(fl, attr); err != nil {
		return errors.Join(ErrCreateAttr, err)
	}

	if err := schema.AddAttributes(attr); err != nil {
		return errors.Join(ErrCreateAttr, err)
	}

	if isVar {
		offsetFilts, err := tiledb.NewFilterList(ctx)
		if err != nil {
			return errors.Join(ErrCreateAttr, err)
		}
		defer offsetFilts.Free()

		ddFilt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_POSITIVE_DELTA)
		if err != nil {
			return errors.Join(ErrCreateAttr, err)
		}
		byshFilt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_BYTESHUFFLE)
		if err != nil {
			return errors.Join(ErrCreateAttr, err)
		}
		zstdFilt, err := ZstdFilter(ctx, 16)
		if err != nil {
			return errors.Join(ErrCreateAttr, err)
		}
		if err := AddFilters(offsetFilts, ddFilt, byshFilt, zstdFilt); err != nil {
			return err
		}
		if err := schema.SetOffsetsFilterList(offsetFilts); err != nil {
			return errors.Join(ErrCreateAttr, err)
		}
	}

	return nil
}

// pointCloudSchema builds a sparse, Hilbert-ordered X/Y array for point
// storage, following the teacher's beamSparseSchema layout (same
// lon/lat-as-dimension, AddFilters-on-dims, SetAllowsDups idiom).
func pointCloudSchema(ctx *tiledb.Context, tileExtent float64) (*tiledb.ArraySchema, error) {
	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer domain.Free()

	minF64 := -math.MaxFloat64

	xdim, err := tiledb.NewDimension(ctx, "X", tiledb.TILEDB_FLOAT64, []float64{minF64, math.MaxFloat64}, tileExtent)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer xdim.Free()

	ydim, err := tiledb.NewDimension(ctx, "Y", tiledb.TILEDB_FLOAT64, []float64{minF64, math.MaxFloat64}, tileExtent)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer ydim.Free()

	dimFilt, err := ZstdFilter(ctx, 16)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer dimFilt.Free()

	dimFilts, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer dimFilts.Free()
	if err := AddFilters(dimFilts, dimFilt); err != nil {
		return nil, err
	}
	if err := xdim.SetFilterList(dimFilts); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := ydim.SetFilterList(dimFilts); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}

	if err := domain.AddDimensions(xdim, ydim); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}

	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_SPARSE)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetDomain(domain); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetCapacity(100_000); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetCellOrder(tiledb.TILEDB_HILBERT); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetTileOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetAllowsDups(true); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}

	if err := schemaAttrs(&pointRecord{}, schema, ctx); err != nil {
		return nil, err
	}
	if err := schema.Check(); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	return schema, nil
}

// rasterSchema builds a dense col/row array covering one band's grid, sized
// by width/height, the teacher's pingDenseSchema pattern applied to a 2D
// grid instead of a 1D ping axis.
func rasterSchema(ctx *tiledb.Context, width, height int) (*tiledb.ArraySchema, error) {
	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer domain.Free()

	coldim, err := tiledb.NewDimension(ctx, "Col", tiledb.TILEDB_INT32, []int32{0, int32(width) - 1}, uint64(width))
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer coldim.Free()
	rowdim, err := tiledb.NewDimension(ctx, "Row", tiledb.TILEDB_INT32, []int32{0, int32(height) - 1}, uint64(height))
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer rowdim.Free()

	if err := domain.AddDimensions(coldim, rowdim); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}

	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_DENSE)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetDomain(domain); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetCellOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetTileOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}

	if err := schemaAttrs(&rasterCellRecord{}, schema, ctx); err != nil {
		return nil, err
	}
	if err := schema.Check(); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	return schema, nil
}

// meshVertexSchema builds the sparse (footprint id, vertex index) array a
// TileDBMeshWriter writes vertex coordinates into.
func meshVertexSchema(ctx *tiledb.Context) (*tiledb.ArraySchema, error) {
	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer domain.Free()

	iddim, err := tiledb.NewDimension(ctx, "FootprintID", tiledb.TILEDB_STRING_ASCII, nil, nil)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer iddim.Free()
	vdim, err := tiledb.NewDimension(ctx, "VertexIndex", tiledb.TILEDB_INT32, []int32{0, math.MaxInt32 - 1}, uint64(1024))
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer vdim.Free()

	if err := domain.AddDimensions(iddim, vdim); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}

	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_SPARSE)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetDomain(domain); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetAllowsDups(false); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}

	if err := schemaAttrs(&meshVertexRecord{}, schema, ctx); err != nil {
		return nil, err
	}
	if err := schema.Check(); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	return schema, nil
}

// faceSchema builds the sparse (footprint id, face index) array a
// TileDBMeshWriter writes face topology into.
func faceSchema(ctx *tiledb.Context) (*tiledb.ArraySchema, error) {
	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer domain.Free()

	iddim, err := tiledb.NewDimension(ctx, "FootprintID", tiledb.TILEDB_STRING_ASCII, nil, nil)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer iddim.Free()
	fdim, err := tiledb.NewDimension(ctx, "FaceIndex", tiledb.TILEDB_INT32, []int32{0, math.MaxInt32 - 1}, uint64(256))
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer fdim.Free()

	if err := domain.AddDimensions(iddim, fdim); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}

	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_SPARSE)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetDomain(domain); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetAllowsDups(false); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}

	if err := schemaAttrs(&faceRecord{}, schema, ctx); err != nil {
		return nil, err
	}
	if err := schema.Check(); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	return schema, nil
}
