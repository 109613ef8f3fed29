package iodefs

// Stream caters for a generic byte-addressable source so that a caller can
// treat a file on disk, an object-store handle or an in-memory buffer
// identically once opened, the same role the teacher's Stream interface
// plays for GSF file bodies.
type Stream interface {
	Read(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
}
