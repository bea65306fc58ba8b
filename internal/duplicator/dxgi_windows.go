//go:build windows

package duplicator

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
	"github.com/breeze-rmm/monitorcapture/internal/graphics"
)

var (
	modD3D11              = windows.NewLazySystemDLL("d3d11.dll")
	procD3D11CreateDevice = modD3D11.NewProc("D3D11CreateDevice")
)

const (
	d3dDriverTypeHardware        = 1
	d3dFeatureLevel11_0          = 0xb000
	d3d11SDKVersion              = 7
	d3d11CreateDeviceBGRASupport = 0x20

	d3d11UsageStaging  = 3
	d3d11CPUAccessRead = 0x20000
	d3d11MapRead       = 1
	dxgiFormatB8G8R8A8 = 87

	dxgiModeRotationRotate90  = 2
	dxgiModeRotationRotate180 = 3
	dxgiModeRotationRotate270 = 4

	dxgiErrNotFound      = 0x887A0002
	dxgiErrInvalidCall   = 0x887A0001
	dxgiErrDeviceRemoved = 0x887A0005
	dxgiErrDeviceReset   = 0x887A0007
	dxgiErrAccessLost    = 0x887A0026
	dxgiErrWaitTimeout   = 0x887A0027

	// vtable slots
	dxgiDeviceGetAdapter       = 7  // IDXGIDevice
	dxgiAdapterEnumOutputs     = 7  // IDXGIAdapter
	dxgiOutputGetDesc          = 7  // IDXGIOutput
	dxgiOutput1DuplicateOutput = 22 // IDXGIOutput1
	dxgiDuplGetDesc            = 7  // IDXGIOutputDuplication
	dxgiDuplAcquireNextFrame   = 8
	dxgiDuplReleaseFrame       = 14
	d3d11DeviceCreateTexture2D = 5  // ID3D11Device
	d3d11CtxMap                = 14 // ID3D11DeviceContext
	d3d11CtxUnmap              = 15
	d3d11CtxCopyResource       = 47
)

var (
	iidIDXGIDevice     = comGUID{0x54ec77fa, 0x1377, 0x44e6, [8]byte{0x8c, 0x32, 0x88, 0xfd, 0x5f, 0x44, 0xc8, 0x4c}}
	iidID3D11Texture2D = comGUID{0x6f15aaf2, 0xd208, 0x4e89, [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
	iidIDXGIOutput1    = comGUID{0x00cddea8, 0x939b, 0x4b83, [8]byte{0xa3, 0x40, 0xa6, 0x85, 0x22, 0x66, 0x66, 0xcc}}
)

// d3d11Texture2DDesc matches D3D11_TEXTURE2D_DESC.
type d3d11Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// d3d11MappedSubresource matches D3D11_MAPPED_SUBRESOURCE.
type d3d11MappedSubresource struct {
	PData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}

// dxgiOutDuplDesc matches DXGI_OUTDUPL_DESC.
type dxgiOutDuplDesc struct {
	Width                      uint32
	Height                     uint32
	RefreshNumerator           uint32
	RefreshDenominator         uint32
	Format                     uint32
	ScanlineOrdering           uint32
	Scaling                    uint32
	Rotation                   uint32
	DesktopImageInSystemMemory int32
}

// dxgiOutDuplFrameInfo matches DXGI_OUTDUPL_FRAME_INFO.
type dxgiOutDuplFrameInfo struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            int32
	ProtectedContentMaskedOut int32
	PointerPositionX          int32
	PointerPositionY          int32
	PointerVisible            int32
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}

// DXGIFactory creates DXGI Desktop Duplication handles on the default
// adapter. Calls must happen on the render thread.
type DXGIFactory struct{}

// NewDXGIFactory returns a DXGI factory.
func NewDXGIFactory() *DXGIFactory {
	return &DXGIFactory{}
}

func createDevice(flags uintptr) (device, context uintptr, err error) {
	featureLevel := uint32(d3dFeatureLevel11_0)
	var actual uint32
	call := func(flags uintptr) uintptr {
		hr, _, _ := procD3D11CreateDevice.Call(
			0, // default adapter
			uintptr(d3dDriverTypeHardware),
			0,
			flags,
			uintptr(unsafe.Pointer(&featureLevel)),
			1,
			uintptr(d3d11SDKVersion),
			uintptr(unsafe.Pointer(&device)),
			uintptr(unsafe.Pointer(&actual)),
			uintptr(unsafe.Pointer(&context)),
		)
		return hr
	}

	hr := call(flags)
	if int32(hr) < 0 && flags != 0 {
		hr = call(0)
	}
	if int32(hr) < 0 {
		return 0, 0, hresultError{op: "D3D11CreateDevice", code: uint32(hr)}
	}
	return device, context, nil
}

func deviceAdapter(device uintptr) (uintptr, error) {
	var dxgiDevice uintptr
	if _, err := comCall(device, vtblQueryInterface,
		uintptr(unsafe.Pointer(&iidIDXGIDevice)),
		uintptr(unsafe.Pointer(&dxgiDevice)),
	); err != nil {
		return 0, fmt.Errorf("QueryInterface IDXGIDevice: %w", err)
	}
	defer comRelease(dxgiDevice)

	var adapter uintptr
	if _, err := comCall(dxgiDevice, dxgiDeviceGetAdapter, uintptr(unsafe.Pointer(&adapter))); err != nil {
		return 0, fmt.Errorf("IDXGIDevice::GetAdapter: %w", err)
	}
	return adapter, nil
}

// Create duplicates output monitor. Every failure wraps
// capture.ErrResourceUnavailable; the caller retries later.
func (f *DXGIFactory) Create(monitor int) (capture.Duplicator, error) {
	d, err := f.create(monitor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrResourceUnavailable, err)
	}
	return d, nil
}

func (f *DXGIFactory) create(monitor int) (_ *dxgiDuplicator, err error) {
	d := &dxgiDuplicator{monitor: monitor}
	defer func() {
		if err != nil {
			d.release()
		}
	}()

	if d.device, d.context, err = createDevice(d3d11CreateDeviceBGRASupport); err != nil {
		return nil, err
	}

	adapter, err := deviceAdapter(d.device)
	if err != nil {
		return nil, err
	}
	defer comRelease(adapter)

	output, err := enumOutput(adapter, monitor)
	if err != nil {
		return nil, err
	}
	var output1 uintptr
	_, err = comCall(output, vtblQueryInterface,
		uintptr(unsafe.Pointer(&iidIDXGIOutput1)),
		uintptr(unsafe.Pointer(&output1)),
	)
	comRelease(output)
	if err != nil {
		return nil, fmt.Errorf("QueryInterface IDXGIOutput1: %w", err)
	}
	defer comRelease(output1)

	// Fails while a secure desktop is active or the output is in exclusive
	// fullscreen use.
	if _, err = comCall(output1, dxgiOutput1DuplicateOutput, d.device, uintptr(unsafe.Pointer(&d.duplication))); err != nil {
		return nil, fmt.Errorf("IDXGIOutput1::DuplicateOutput: %w", err)
	}

	var desc dxgiOutDuplDesc
	hr, _, _ := syscall.SyscallN(comVtblFn(d.duplication, dxgiDuplGetDesc), d.duplication, uintptr(unsafe.Pointer(&desc)))
	if int32(hr) < 0 {
		return nil, hresultError{op: "IDXGIOutputDuplication::GetDesc", code: uint32(hr)}
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("invalid duplication size %dx%d", desc.Width, desc.Height)
	}

	// Acquired frames keep the native panel orientation; the mode size is
	// post-rotation.
	texW, texH := desc.Width, desc.Height
	if desc.Rotation == dxgiModeRotationRotate90 || desc.Rotation == dxgiModeRotationRotate270 {
		texW, texH = texH, texW
	}

	stagingDesc := d3d11Texture2DDesc{
		Width:          texW,
		Height:         texH,
		MipLevels:      1,
		ArraySize:      1,
		Format:         dxgiFormatB8G8R8A8,
		SampleCount:    1,
		Usage:          d3d11UsageStaging,
		CPUAccessFlags: d3d11CPUAccessRead,
	}
	if _, err = comCall(d.device, d3d11DeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&stagingDesc)),
		0,
		uintptr(unsafe.Pointer(&d.staging)),
	); err != nil {
		return nil, fmt.Errorf("CreateTexture2D staging: %w", err)
	}

	d.tex = graphics.NewImageTexture(int(texW), int(texH))
	log.Info("dxgi duplication created",
		"monitor", monitor, "width", texW, "height", texH, "rotation", rotationDegrees(desc.Rotation))
	return d, nil
}

type dxgiDuplicator struct {
	monitor     int
	device      uintptr // ID3D11Device
	context     uintptr // ID3D11DeviceContext
	duplication uintptr // IDXGIOutputDuplication
	staging     uintptr // ID3D11Texture2D, CPU readable
	tex         *graphics.ImageTexture
}

// staleCodes invalidate the duplication; a new one must be created.
var staleCodes = map[uint32]string{
	dxgiErrAccessLost:    "access lost",
	dxgiErrInvalidCall:   "invalid call",
	dxgiErrDeviceRemoved: "device removed",
	dxgiErrDeviceReset:   "device reset",
}

// UpdateFrame copies the latest desktop image into the texture. No new frame
// keeps the previous image.
func (d *dxgiDuplicator) UpdateFrame() error {
	if d.duplication == 0 {
		return fmt.Errorf("%w: duplicator closed", capture.ErrFrameStale)
	}

	var info dxgiOutDuplFrameInfo
	var resource uintptr
	hr, _, _ := syscall.SyscallN(
		comVtblFn(d.duplication, dxgiDuplAcquireNextFrame),
		d.duplication,
		0, // do not wait
		uintptr(unsafe.Pointer(&info)),
		uintptr(unsafe.Pointer(&resource)),
	)
	code := uint32(hr)
	switch {
	case code == dxgiErrWaitTimeout:
		return nil
	case int32(hr) < 0:
		he := hresultError{op: "AcquireNextFrame", code: code}
		if reason, ok := staleCodes[code]; ok {
			return fmt.Errorf("%w: %s: %w", capture.ErrFrameStale, reason, he)
		}
		return fmt.Errorf("%w: %w", capture.ErrFrameStale, he)
	}
	defer syscall.SyscallN(comVtblFn(d.duplication, dxgiDuplReleaseFrame), d.duplication)

	if info.AccumulatedFrames == 0 || info.LastPresentTime == 0 {
		// Pointer-only update.
		comRelease(resource)
		return nil
	}

	var texture uintptr
	_, err := comCall(resource, vtblQueryInterface,
		uintptr(unsafe.Pointer(&iidID3D11Texture2D)),
		uintptr(unsafe.Pointer(&texture)),
	)
	comRelease(resource)
	if err != nil {
		return fmt.Errorf("%w: QueryInterface ID3D11Texture2D: %w", capture.ErrFrameStale, err)
	}
	syscall.SyscallN(comVtblFn(d.context, d3d11CtxCopyResource), d.context, d.staging, texture)
	comRelease(texture)

	var mapped d3d11MappedSubresource
	hr, _, _ = syscall.SyscallN(
		comVtblFn(d.context, d3d11CtxMap),
		d.context,
		d.staging,
		0,
		d3d11MapRead,
		0,
		uintptr(unsafe.Pointer(&mapped)),
	)
	if int32(hr) < 0 {
		return fmt.Errorf("%w: %w", capture.ErrFrameStale, hresultError{op: "Map staging", code: uint32(hr)})
	}
	defer syscall.SyscallN(comVtblFn(d.context, d3d11CtxUnmap), d.context, d.staging, 0)

	img := d.tex.Image()
	pitch := int(mapped.RowPitch)
	src := unsafe.Slice((*byte)(unsafe.Pointer(mapped.PData)), pitch*img.Bounds().Dy())
	graphics.CopyBGRA(img, src, pitch)
	return nil
}

func (d *dxgiDuplicator) Texture() capture.Texture {
	if d.tex == nil {
		return nil
	}
	return d.tex
}

func (d *dxgiDuplicator) Close() error {
	d.release()
	return nil
}

func (d *dxgiDuplicator) release() {
	comRelease(d.staging)
	comRelease(d.duplication)
	comRelease(d.context)
	comRelease(d.device)
	d.staging, d.duplication, d.context, d.device = 0, 0, 0, 0
	d.tex = nil
}
