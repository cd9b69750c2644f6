//go:build wgpunative

// Package gpukernel implements a compute backend that runs the stencil
// kernel through wgpu-native.
package gpukernel

import (
	"context"
	"errors"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.trai.ch/subdiv/internal/adapters/backend/hostmem"
	"go.trai.ch/subdiv/internal/adapters/backend/kernels"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

// Backend owns a wgpu device and the stencil pipeline.
type Backend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	shader     *wgpu.ShaderModule
	bindLayout *wgpu.BindGroupLayout
	pipeLayout *wgpu.PipelineLayout
	pipeline   *wgpu.ComputePipeline

	pool    hostmem.Pool
	buffers map[*deviceBuffer]struct{}
	closed  bool
}

// Probe reports whether wgpu-native can hand out an adapter.
func Probe(_ context.Context) error {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return errors.Join(domain.ErrBackendUnavailable, zerr.New("failed to create wgpu instance"))
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return errors.Join(domain.ErrBackendUnavailable, zerr.Wrap(err, "no wgpu adapter"))
	}
	adapter.Release()
	return nil
}

// Create requests a device and builds the stencil pipeline.
func Create(_ context.Context, _ domain.BackendConfig) (ports.ComputeBackend, error) {
	b := &Backend{buffers: make(map[*deviceBuffer]struct{})}
	if err := b.open(); err != nil {
		_ = b.Shutdown()
		return nil, errors.Join(domain.ErrBackendUnavailable, err)
	}
	return b, nil
}

func (b *Backend) open() error {
	b.instance = wgpu.CreateInstance(nil)
	if b.instance == nil {
		return zerr.New("failed to create wgpu instance")
	}

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return zerr.Wrap(err, "failed to request adapter")
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "subdiv"})
	if err != nil {
		return zerr.Wrap(err, "failed to request device")
	}
	b.device = device
	b.queue = device.GetQueue()

	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "subdiv_stencil",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: kernels.StencilShader},
	})
	if err != nil {
		return zerr.Wrap(err, "failed to compile stencil kernel")
	}
	b.shader = shader

	entry := func(binding uint32, typ wgpu.BufferBindingType) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: typ},
		}
	}
	bindLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "subdiv_stencil_bind_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			entry(0, wgpu.BufferBindingTypeUniform),
			entry(1, wgpu.BufferBindingTypeReadOnlyStorage),
			entry(2, wgpu.BufferBindingTypeReadOnlyStorage),
			entry(3, wgpu.BufferBindingTypeReadOnlyStorage),
			entry(4, wgpu.BufferBindingTypeReadOnlyStorage),
			entry(5, wgpu.BufferBindingTypeReadOnlyStorage),
			entry(6, wgpu.BufferBindingTypeStorage),
		},
	})
	if err != nil {
		return zerr.Wrap(err, "failed to create bind group layout")
	}
	b.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "subdiv_stencil_pipe_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return zerr.Wrap(err, "failed to create pipeline layout")
	}
	b.pipeLayout = pipeLayout

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "subdiv_stencil_pipeline",
		Layout: pipeLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return zerr.Wrap(err, "failed to create compute pipeline")
	}
	b.pipeline = pipeline
	return nil
}

// Kind returns domain.BackendGPUKernel.
func (b *Backend) Kind() domain.BackendKind { return domain.BackendGPUKernel }

// Refine uploads the plan and points, runs the kernel and maps the result back.
func (b *Backend) Refine(_ context.Context, plan *domain.RefinementPlan, src []mgl32.Vec3) ([]mgl32.Vec3, error) {
	if err := kernels.Check(plan, src); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.Join(domain.ErrComputeFailure, zerr.New("backend is shut down"))
	}

	out, err := b.dispatch(plan.NumRefinedVertices(), kernels.Pack(plan, src))
	if err != nil {
		return nil, errors.Join(domain.ErrComputeFailure, err)
	}
	return out, nil
}

func (b *Backend) dispatch(n int, in *kernels.Inputs) ([]mgl32.Vec3, error) {
	if n == 0 {
		return nil, nil
	}

	var transient []*wgpu.Buffer
	defer func() {
		for i := len(transient) - 1; i >= 0; i-- {
			transient[i].Release()
		}
	}()
	create := func(label string, size int, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label, Size: uint64(size), Usage: usage, //nolint:gosec // sizes are positive
		})
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to create buffer"), "label", label)
		}
		transient = append(transient, buf)
		return buf, nil
	}

	inputs := append([][]byte{in.Params}, in.Storage()...)
	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+1)
	for i, data := range inputs {
		usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
		if i == 0 {
			usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
		}
		buf, err := create("subdiv_input", len(data), usage)
		if err != nil {
			return nil, err
		}
		b.queue.WriteBuffer(buf, 0, data)
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(i), //nolint:gosec // binding slots are small
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}

	outSize := uint64(in.OutputSize) //nolint:gosec // sizes are positive
	dst, err := create("subdiv_refined", in.OutputSize, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	staging, err := create("subdiv_staging", in.OutputSize, wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	entries = append(entries, wgpu.BindGroupEntry{
		Binding: uint32(len(inputs)), //nolint:gosec // binding slots are small
		Buffer:  dst,
		Offset:  0,
		Size:    wgpu.WholeSize,
	})

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label: "subdiv_stencil_bind", Layout: b.bindLayout, Entries: entries,
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create bind group")
	}
	defer bindGroup.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create command encoder")
	}
	defer encoder.Release()

	x, y := kernels.Dispatch(n)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(x, y, 1)
	pass.End()
	encoder.CopyBufferToBuffer(dst, 0, staging, 0, outSize)

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to finish encoding")
	}
	defer cmd.Release()
	b.queue.Submit(cmd)

	status := wgpu.BufferMapAsyncStatusUnknown
	staging.MapAsync(wgpu.MapModeRead, 0, outSize, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	b.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, zerr.With(zerr.New("failed to map refined points"), "status", int(status))
	}
	defer staging.Unmap()

	mapped := staging.GetMappedRange(0, uint(in.OutputSize)) //nolint:gosec // sizes are positive
	return kernels.Unpack(mapped, n), nil
}

// Allocate creates a device buffer mirrored in host memory.
func (b *Backend) Allocate(kind domain.BufferKind, size int) (ports.DeviceBuffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.Join(domain.ErrComputeFailure, zerr.New("backend is shut down"))
	}

	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	if kind == domain.BufferPatchIndex {
		usage |= wgpu.BufferUsageIndex
	}
	raw, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "subdiv_" + string(kind), Size: uint64(max(size, 4)), Usage: usage, //nolint:gosec // size checked by the pool
	})
	if err != nil {
		return nil, errors.Join(domain.ErrComputeFailure, zerr.Wrap(err, "failed to create device buffer"))
	}
	dev := &deviceBuffer{backend: b, buf: raw}
	buf, err := b.pool.Allocate(kind, size, dev)
	if err != nil {
		raw.Release()
		return nil, err
	}
	b.buffers[dev] = struct{}{}
	return buf, nil
}

// Live returns the number of buffers still referenced.
func (b *Backend) Live() int { return b.pool.Live() }

// Shutdown releases wgpu objects in reverse creation order.
func (b *Backend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	for dev := range b.buffers {
		dev.buf.Release()
	}
	b.buffers = nil
	if b.pipeline != nil {
		b.pipeline.Release()
	}
	if b.pipeLayout != nil {
		b.pipeLayout.Release()
	}
	if b.bindLayout != nil {
		b.bindLayout.Release()
	}
	if b.shader != nil {
		b.shader.Release()
	}
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
	return nil
}

type deviceBuffer struct {
	backend *Backend
	buf     *wgpu.Buffer
}

func (d *deviceBuffer) Upload(data []byte) error {
	d.backend.mu.Lock()
	defer d.backend.mu.Unlock()
	if d.backend.closed {
		return zerr.New("device is shut down")
	}
	d.backend.queue.WriteBuffer(d.buf, 0, data)
	return nil
}

func (d *deviceBuffer) Free() {
	d.backend.mu.Lock()
	defer d.backend.mu.Unlock()
	if d.backend.closed {
		return
	}
	delete(d.backend.buffers, d)
	d.buf.Release()
}
