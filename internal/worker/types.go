package worker

// Chunk is a vectorized slice of an uploaded document, ready to be written to
// the vector store.
type Chunk struct {
	FileID     string
	Name       string
	Content    string
	ChunkIndex int
	Vector     []float32
}
