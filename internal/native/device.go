//go:build !nogpu

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoHAL is returned when a device provider does not expose HAL objects.
var ErrNoHAL = errors.New("native: provider does not expose HAL types")

// ErrNoAdapter is returned when no backend offers an adapter.
var ErrNoAdapter = errors.New("native: no GPU adapter found")

// FromProvider extracts the HAL device and queue from a host provider.
// The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func FromProvider(provider any) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return device, queue, nil
}

// Device is a device opened by this package. It owns its instance.
type Device struct {
	Instance hal.Instance
	Device   hal.Device
	Queue    hal.Queue
	Info     gputypes.AdapterInfo
}

// Open creates an instance on the given backend and opens the first
// discrete or integrated adapter, falling back to the first adapter.
func Open(variant gputypes.Backend) (*Device, error) {
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %v", hal.ErrBackendNotFound, variant)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
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
		return nil, fmt.Errorf("open device: %w", err)
	}
	return &Device{
		Instance: instance,
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Info:     selected.Info,
	}, nil
}

// Close waits for the device to go idle and destroys the device and the
// instance.
func (d *Device) Close() {
	if d == nil || d.Device == nil {
		return
	}
	_ = d.Device.WaitIdle()
	d.Device.Destroy()
	d.Device = nil
	d.Queue = nil
	if d.Instance != nil {
		d.Instance.Destroy()
		d.Instance = nil
	}
}
