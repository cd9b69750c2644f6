package threaded

// SetChunk shrinks the task size so small plans exercise several workers.
func (b *Backend) SetChunk(n int) { b.chunk = n }
