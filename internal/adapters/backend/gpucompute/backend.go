//go:build !nogpu

// Package gpucompute implements a compute backend that dispatches the
// stencil shader through the pure-Go Vulkan HAL.
package gpucompute

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"go.trai.ch/subdiv/internal/adapters/backend/hostmem"
	"go.trai.ch/subdiv/internal/adapters/backend/kernels"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// fenceTimeout bounds the wait for one dispatch.
const fenceTimeout = 5 * time.Second

// Backend owns a HAL device and the stencil pipeline.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	pool    hostmem.Pool
	buffers map[*deviceBuffer]struct{}
	closed  bool
}

// Probe reports whether a Vulkan adapter can be enumerated.
func Probe(_ context.Context) error {
	instance, err := createInstance()
	if err != nil {
		return err
	}
	defer instance.Destroy()

	if len(instance.EnumerateAdapters(nil)) == 0 {
		return errors.Join(domain.ErrBackendUnavailable, zerr.New("no GPU adapters found"))
	}
	return nil
}

// Create opens the first discrete or integrated adapter.
func Create(_ context.Context, _ domain.BackendConfig) (ports.ComputeBackend, error) {
	instance, err := createInstance()
	if err != nil {
		return nil, err
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.Join(domain.ErrBackendUnavailable, zerr.New("no GPU adapters found"))
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, errors.Join(domain.ErrBackendUnavailable, zerr.Wrap(err, "failed to open device"))
	}
	b, err := Open(instance, openDev.Device, openDev.Queue)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func createInstance() (hal.Instance, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, errors.Join(domain.ErrBackendUnavailable, zerr.New("vulkan backend not available"))
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, errors.Join(domain.ErrBackendUnavailable, zerr.Wrap(err, "failed to create instance"))
	}
	return instance, nil
}

// Open builds the stencil pipeline on an opened device. The backend takes
// ownership of instance and device; on failure both are destroyed.
func Open(instance hal.Instance, device hal.Device, queue hal.Queue) (*Backend, error) {
	b := &Backend{
		instance: instance,
		device:   device,
		queue:    queue,
		buffers:  make(map[*deviceBuffer]struct{}),
	}
	if err := b.createPipeline(); err != nil {
		_ = b.Shutdown()
		return nil, errors.Join(domain.ErrBackendUnavailable, err)
	}
	return b, nil
}

func (b *Backend) createPipeline() error {
	shader, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "subdiv_stencil",
		Source: hal.ShaderSource{WGSL: kernels.StencilShader},
	})
	if err != nil {
		return zerr.Wrap(err, "failed to compile stencil shader")
	}
	b.shader = shader

	storage := func(binding uint32, typ gputypes.BufferBindingType) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: typ},
		}
	}
	bindLayout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "subdiv_stencil_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storage(0, gputypes.BufferBindingTypeUniform),
			storage(1, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(2, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(3, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(4, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(5, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(6, gputypes.BufferBindingTypeStorage),
		},
	})
	if err != nil {
		return zerr.Wrap(err, "failed to create bind group layout")
	}
	b.bindLayout = bindLayout

	pipeLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "subdiv_stencil_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{b.bindLayout},
	})
	if err != nil {
		return zerr.Wrap(err, "failed to create pipeline layout")
	}
	b.pipeLayout = pipeLayout

	pipeline, err := b.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "subdiv_stencil_pipeline", Layout: b.pipeLayout,
		Compute: hal.ComputeState{Module: b.shader, EntryPoint: "main"},
	})
	if err != nil {
		return zerr.Wrap(err, "failed to create compute pipeline")
	}
	b.pipeline = pipeline
	return nil
}

// Kind returns domain.BackendGPUCompute.
func (b *Backend) Kind() domain.BackendKind { return domain.BackendGPUCompute }

// Refine uploads the plan and points, dispatches the stencil shader and
// reads the refined points back.
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

	var transient []hal.Buffer
	defer func() {
		for i := len(transient) - 1; i >= 0; i-- {
			b.device.DestroyBuffer(transient[i])
		}
	}()
	create := func(label string, size int, usage gputypes.BufferUsage) (hal.Buffer, error) {
		buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: uint64(size), Usage: usage}) //nolint:gosec // sizes are positive
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to create buffer"), "label", label)
		}
		transient = append(transient, buf)
		return buf, nil
	}

	inputs := append([][]byte{in.Params}, in.Storage()...)
	entries := make([]gputypes.BindGroupEntry, 0, len(inputs)+1)
	for i, data := range inputs {
		usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
		if i == 0 {
			usage = gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
		}
		buf, err := create("subdiv_input", len(data), usage)
		if err != nil {
			return nil, err
		}
		b.queue.WriteBuffer(buf, 0, data)
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i), //nolint:gosec // binding slots are small
			Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: uint64(len(data))},
		})
	}

	outSize := uint64(in.OutputSize) //nolint:gosec // sizes are positive
	dst, err := create("subdiv_refined", in.OutputSize, gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	staging, err := create("subdiv_staging", in.OutputSize, gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  uint32(len(inputs)), //nolint:gosec // binding slots are small
		Resource: gputypes.BufferBinding{Buffer: dst.NativeHandle(), Offset: 0, Size: outSize},
	})

	bindGroup, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "subdiv_stencil_bind", Layout: b.bindLayout, Entries: entries,
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create bind group")
	}
	defer b.device.DestroyBindGroup(bindGroup)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "subdiv_stencil_encoder"})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create command encoder")
	}
	if err := encoder.BeginEncoding("subdiv_stencil"); err != nil {
		return nil, zerr.Wrap(err, "failed to begin encoding")
	}
	x, y := kernels.Dispatch(n)
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "subdiv_stencil_pass"})
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(x, y, 1)
	pass.End()
	encoder.CopyBufferToBuffer(dst, staging, []hal.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: outSize}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to end encoding")
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create fence")
	}
	defer b.device.DestroyFence(fence)
	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, zerr.Wrap(err, "failed to submit")
	}
	ok, err := b.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to wait for GPU")
	}
	if !ok {
		return nil, zerr.With(zerr.New("GPU wait timed out"), "timeout", fenceTimeout.String())
	}

	readback := make([]byte, in.OutputSize)
	if err := b.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, zerr.Wrap(err, "failed to read back refined points")
	}
	return kernels.Unpack(readback, n), nil
}

// Allocate creates a device buffer mirrored in host memory.
func (b *Backend) Allocate(kind domain.BufferKind, size int) (ports.DeviceBuffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.Join(domain.ErrComputeFailure, zerr.New("backend is shut down"))
	}

	usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc
	if kind == domain.BufferPatchIndex {
		usage |= gputypes.BufferUsageIndex
	}
	raw, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "subdiv_" + string(kind), Size: uint64(max(size, 4)), Usage: usage, //nolint:gosec // size checked by the pool
	})
	if err != nil {
		return nil, errors.Join(domain.ErrComputeFailure, zerr.Wrap(err, "failed to create device buffer"))
	}
	dev := &deviceBuffer{backend: b, buf: raw}
	buf, err := b.pool.Allocate(kind, size, dev)
	if err != nil {
		b.device.DestroyBuffer(raw)
		return nil, err
	}
	b.buffers[dev] = struct{}{}
	return buf, nil
}

// Live returns the number of buffers still referenced.
func (b *Backend) Live() int { return b.pool.Live() }

// Shutdown destroys device resources in reverse creation order. Buffers
// still referenced keep their host copy but lose their device allocation.
func (b *Backend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	if b.device != nil {
		for dev := range b.buffers {
			b.device.DestroyBuffer(dev.buf)
		}
		b.buffers = nil
		if b.pipeline != nil {
			b.device.DestroyComputePipeline(b.pipeline)
		}
		if b.pipeLayout != nil {
			b.device.DestroyPipelineLayout(b.pipeLayout)
		}
		if b.bindLayout != nil {
			b.device.DestroyBindGroupLayout(b.bindLayout)
		}
		if b.shader != nil {
			b.device.DestroyShaderModule(b.shader)
		}
		b.device.Destroy()
		b.device = nil
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
	b.queue = nil
	return nil
}

type deviceBuffer struct {
	backend *Backend
	buf     hal.Buffer
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
	d.backend.device.DestroyBuffer(d.buf)
}
