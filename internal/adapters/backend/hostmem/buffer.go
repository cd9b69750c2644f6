// Package hostmem provides reference-counted buffers mirrored in host memory.
// GPU backends attach a Device to push uploads to their own allocation.
package hostmem

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/zerr"
)

// Device is the device side of a buffer.
type Device interface {
	// Upload copies data to the device allocation at offset zero.
	Upload(data []byte) error
	// Free releases the device allocation.
	Free()
}

// Pool hands out buffer IDs and counts live allocations.
type Pool struct {
	nextID atomic.Uint64
	live   atomic.Int64
}

// Live returns the number of buffers that still hold a reference.
func (p *Pool) Live() int { return int(p.live.Load()) }

// Allocate creates a buffer of size bytes holding one reference. dev may be nil.
func (p *Pool) Allocate(kind domain.BufferKind, size int, dev Device) (*Buffer, error) {
	if size < 0 {
		return nil, zerr.With(zerr.New("negative buffer size"), "size", size)
	}
	b := &Buffer{
		id:   p.nextID.Add(1),
		kind: kind,
		size: size,
		dev:  dev,
		pool: p,
		data: make([]byte, size),
	}
	b.refs.Store(1)
	p.live.Add(1)
	return b, nil
}

// Buffer implements ports.DeviceBuffer.
type Buffer struct {
	id   uint64
	kind domain.BufferKind
	size int
	dev  Device
	pool *Pool

	mu   sync.Mutex
	data []byte
	refs atomic.Int64
}

// ID identifies the allocation.
func (b *Buffer) ID() uint64 { return b.id }

// Kind returns what the buffer holds.
func (b *Buffer) Kind() domain.BufferKind { return b.kind }

// Size returns the capacity in bytes.
func (b *Buffer) Size() int { return b.size }

// Write uploads data at offset zero.
func (b *Buffer) Write(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refs.Load() <= 0 {
		return errors.Join(domain.ErrBufferReleased, zerr.With(zerr.New("write after release"), "buffer", b.id))
	}
	if len(data) > b.size {
		err := zerr.With(zerr.New("data exceeds buffer capacity"), "size", b.size)
		err = zerr.With(err, "len", len(data))
		return errors.Join(domain.ErrComputeFailure, err)
	}
	copy(b.data, data)
	if b.dev != nil {
		if err := b.dev.Upload(data); err != nil {
			return errors.Join(domain.ErrComputeFailure, zerr.Wrap(err, "failed to upload buffer"))
		}
	}
	return nil
}

// Contents returns a copy of the last uploaded bytes.
func (b *Buffer) Contents() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refs.Load() <= 0 {
		return nil, false
	}
	return append([]byte(nil), b.data...), true
}

// Retain adds a reference.
func (b *Buffer) Retain() { b.refs.Add(1) }

// Release drops a reference and frees the allocation with the last one.
func (b *Buffer) Release() {
	if b.refs.Add(-1) != 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
	if b.dev != nil {
		b.dev.Free()
	}
	b.pool.live.Add(-1)
}
