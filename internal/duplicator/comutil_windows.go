//go:build windows

package duplicator

import (
	"fmt"
	"syscall"
	"unsafe"
)

// comGUID is a COM interface identifier.
type comGUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

const vtblQueryInterface = 0

// comVtblFn resolves the function pointer at vtable slot idx of obj.
func comVtblFn(obj uintptr, idx int) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	return *(*uintptr)(unsafe.Pointer(vtbl + uintptr(idx)*unsafe.Sizeof(uintptr(0))))
}

// comCall invokes vtable slot idx on obj and converts a failed HRESULT to an
// error carrying the raw code.
func comCall(obj uintptr, idx int, args ...uintptr) (uintptr, error) {
	all := make([]uintptr, 0, 1+len(args))
	all = append(all, obj)
	all = append(all, args...)
	ret, _, _ := syscall.SyscallN(comVtblFn(obj, idx), all...)
	if int32(ret) < 0 {
		return ret, hresultError{op: fmt.Sprintf("vtable[%d]", idx), code: uint32(ret)}
	}
	return ret, nil
}

// comRelease calls IUnknown::Release.
func comRelease(obj uintptr) {
	if obj != 0 {
		syscall.SyscallN(comVtblFn(obj, 2), obj)
	}
}

// hresultError is a failed COM call.
type hresultError struct {
	op   string
	code uint32
}

func (e hresultError) Error() string {
	return fmt.Sprintf("%s: HRESULT 0x%08X", e.op, e.code)
}
