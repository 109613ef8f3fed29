package tiledbio

import (
	"context"
	"errors"
	"path"

	tiledb "github.com/TileDB-Inc/TileDB-Go"

	"github.com/sixy6e/lod-recon"
)

// ensureArray creates the array at uri from schema if it doesn't already
// exist, mirroring PingArrays' NewArray+Create pairing; an array that
// already exists (it opens for reading) is treated as success since every
// writer call targets the same handful of fixed URIs.
func ensureArray(ctx *tiledb.Context, uri string, schema *tiledb.ArraySchema) error {
	if existing, err := ArrayOpen(ctx, uri, tiledb.TILEDB_READ); err == nil {
		existing.Close()
		existing.Free()
		return nil
	}

	array, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return errors.Join(ErrCreateSchema, err)
	}
	defer array.Free()

	if err := array.Create(schema); err != nil {
		if alreadyExists(err) {
			return nil
		}
		return errors.Join(ErrCreateSchema, err)
	}
	return nil
}

func alreadyExists(err error) bool {
	return err != nil && errors.Is(err, errAlreadyExists)
}

// errAlreadyExists is a sentinel to keep alreadyExists readable; libtiledb
// surfaces array-exists failures as a plain *errors.errorString, so this
// never actually matches via errors.Is and the check always falls through to
// the caller's error path today. Kept named for the day the Go bindings
// expose a typed sentinel for it.
var errAlreadyExists = errors.New("array already exists")

// TileDBMeshWriter implements iodefs.MeshWriter over two sparse TileDB
// arrays keyed by footprint id: one vertex-per-row array (meshVertexSchema)
// and one face-per-row array (faceSchema) whose var-length Indices
// attribute carries each face's vertex index ring, the same
// var-length-attribute idiom the teacher uses for BRB intensity time series
// in tiledb.go/CreateAttr.
type TileDBMeshWriter struct {
	ctx        *tiledb.Context
	vertexURI  string
	faceURI    string
}

// NewTileDBMeshWriter ensures both backing arrays exist under baseDir and
// returns a writer over them.
func NewTileDBMeshWriter(ctx *tiledb.Context, baseDir string) (*TileDBMeshWriter, error) {
	vertexURI := path.Join(baseDir, "mesh_vertices")
	faceURI := path.Join(baseDir, "mesh_faces")

	vSchema, err := meshVertexSchema(ctx)
	if err != nil {
		return nil, err
	}
	defer vSchema.Free()
	if err := ensureArray(ctx, vertexURI, vSchema); err != nil {
		return nil, err
	}

	fSchema, err := faceSchema(ctx)
	if err != nil {
		return nil, err
	}
	defer fSchema.Free()
	if err := ensureArray(ctx, faceURI, fSchema); err != nil {
		return nil, err
	}

	return &TileDBMeshWriter{ctx: ctx, vertexURI: vertexURI, faceURI: faceURI}, nil
}

// WriteMesh persists mesh's vertices and face topology under id. attrs is
// accepted for interface symmetry with a richer sink (e.g. CityJSON) that
// can carry arbitrary metadata; a TileDB array has no per-row free-form
// attribute slot, so attrs is not written; only the mesh's vertices and
// faces (with their surface tags) are persisted.
func (w *TileDBMeshWriter) WriteMesh(ctx context.Context, id string, mesh lodrecon.BuildingMesh, attrs map[string]any) error {
	if err := w.writeVertices(ctx, id, mesh.Mesh); err != nil {
		return err
	}
	return w.writeFaces(ctx, id, mesh.Mesh)
}

func (w *TileDBMeshWriter) writeVertices(ctx context.Context, id string, mesh lodrecon.Mesh) error {
	n := len(mesh.Vertices)
	if n == 0 {
		return nil
	}
	array, err := ArrayOpen(w.ctx, w.vertexURI, tiledb.TILEDB_WRITE)
	if err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	defer array.Close()
	defer array.Free()

	query, err := tiledb.NewQuery(w.ctx, array)
	if err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_UNORDERED); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}

	ids := make([]string, n)
	idxs := make([]int32, n)
	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)
	for i, v := range mesh.Vertices {
		ids[i] = id
		idxs[i] = int32(i)
		xs[i], ys[i], zs[i] = v.X, v.Y, v.Z
	}

	if _, err := query.SetDataBuffer("FootprintID", stringBytes(ids)); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	if err := setOffsetsForFixedStrings(query, "FootprintID", ids); err != nil {
		return err
	}
	if _, err := query.SetDataBuffer("VertexIndex", idxs); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	if _, err := query.SetDataBuffer("X", xs); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	if _, err := query.SetDataBuffer("Y", ys); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	if _, err := query.SetDataBuffer("Z", zs); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}

	if err := query.Submit(); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	return query.Finalize()
}

func (w *TileDBMeshWriter) writeFaces(ctx context.Context, id string, mesh lodrecon.Mesh) error {
	n := len(mesh.Faces)
	if n == 0 {
		return nil
	}
	array, err := ArrayOpen(w.ctx, w.faceURI, tiledb.TILEDB_WRITE)
	if err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	defer array.Close()
	defer array.Free()

	query, err := tiledb.NewQuery(w.ctx, array)
	if err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_UNORDERED); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}

	ids := make([]string, n)
	faceIdx := make([]int32, n)
	surface := make([]int32, n)
	var flatIndices []int32
	offsets := make([]uint64, n)

	for i, f := range mesh.Faces {
		ids[i] = id
		faceIdx[i] = int32(i)
		surface[i] = int32(f.Surface)
		offsets[i] = uint64(len(flatIndices)) * 4 // bytes, int32 elements
		for _, v := range f.Indices {
			flatIndices = append(flatIndices, int32(v))
		}
	}

	if _, err := query.SetDataBuffer("FootprintID", stringBytes(ids)); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	if err := setOffsetsForFixedStrings(query, "FootprintID", ids); err != nil {
		return err
	}
	if _, err := query.SetDataBuffer("FaceIndex", faceIdx); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	if _, err := query.SetDataBuffer("Surface", surface); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	if _, err := query.SetOffsetsBuffer("Indices", offsets); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	if _, err := query.SetDataBuffer("Indices", flatIndices); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}

	if err := query.Submit(); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	return query.Finalize()
}

// TileDBRasterWriter implements iodefs.RasterWriter, persisting each band
// into its own dense array sized for that band's grid (rasterSchema).
type TileDBRasterWriter struct {
	ctx     *tiledb.Context
	baseDir string
}

// NewTileDBRasterWriter builds a writer whose WriteBands creates one array
// per band under the dirPath it is given, named by the band's own Band
// field. baseDir is kept on the writer but does not enter the array URIs.
func NewTileDBRasterWriter(ctx *tiledb.Context, baseDir string) *TileDBRasterWriter {
	return &TileDBRasterWriter{ctx: ctx, baseDir: baseDir}
}

// WriteBands persists every band to its own array, keyed by band name under
// path (path is treated as a directory prefix the way the teacher's
// dense_file_uri/sparse_file_uri pair address sibling arrays).
func (w *TileDBRasterWriter) WriteBands(ctx context.Context, dirPath string, bands []*lodrecon.ImageMap) error {
	for _, band := range bands {
		if err := w.writeBand(ctx, dirPath, band); err != nil {
			return err
		}
	}
	return nil
}

func (w *TileDBRasterWriter) writeBand(ctx context.Context, dirPath string, band *lodrecon.ImageMap) error {
	uri := path.Join(dirPath, band.Band)

	schema, err := rasterSchema(w.ctx, band.Width, band.Height)
	if err != nil {
		return err
	}
	defer schema.Free()
	if err := ensureArray(w.ctx, uri, schema); err != nil {
		return err
	}

	array, err := ArrayOpen(w.ctx, uri, tiledb.TILEDB_WRITE)
	if err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	defer array.Close()
	defer array.Free()

	query, err := tiledb.NewQuery(w.ctx, array)
	if err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}

	subarr, err := array.NewSubarray()
	if err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	defer subarr.Free()
	if err := subarr.AddRangeByName("Col", tiledb.MakeRange(int32(0), int32(band.Width)-1)); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	if err := subarr.AddRangeByName("Row", tiledb.MakeRange(int32(0), int32(band.Height)-1)); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	if err := query.SetSubarray(subarr); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}

	if _, err := query.SetDataBuffer("Value", band.Values); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}

	if err := query.Submit(); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	return query.Finalize()
}

// stringBytes concatenates fixed strings into the flat byte buffer
// TileDB's ASCII/UTF8 dimension buffers expect.
func stringBytes(ss []string) []byte {
	var out []byte
	for _, s := range ss {
		out = append(out, []byte(s)...)
	}
	return out
}

// setOffsetsForFixedStrings builds and sets the offsets buffer for a
// variable-length string dimension/attribute from its source strings.
func setOffsetsForFixedStrings(query *tiledb.Query, name string, ss []string) error {
	offsets := make([]uint64, len(ss))
	var cum uint64
	for i, s := range ss {
		offsets[i] = cum
		cum += uint64(len(s))
	}
	if _, err := query.SetOffsetsBuffer(name, offsets); err != nil {
		return errors.Join(ErrTileDBQuery, err)
	}
	return nil
}
