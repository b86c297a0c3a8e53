// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

//go:build windows

package deltapkg

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	msdeltaDLL      = windows.NewLazySystemDLL("msdelta.dll")
	procApplyDeltaW = msdeltaDLL.NewProc("ApplyDeltaW")
	msdeltaLoadOnce sync.Once
	msdeltaLoadErr  error
)

const deltaFlagNone = 0

func loadMSDelta() error {
	msdeltaLoadOnce.Do(func() {
		msdeltaLoadErr = msdeltaDLL.Load()
	})

	return msdeltaLoadErr
}

// applyMSDeltaPatchPlatform applies an MSDelta (.diff) patch via the
// OS-provided ApplyDeltaW routine.
func applyMSDeltaPatchPlatform(patchPath, oldPath, outPath string) error {
	if err := loadMSDelta(); err != nil {
		return fmt.Errorf("%w: msdelta.dll unavailable: %v", ErrMSDeltaUnsupported, err)
	}

	sourcePtr, err := syscall.UTF16PtrFromString(oldPath)
	if err != nil {
		return fmt.Errorf("%w: encode source path: %v", ErrPatchFailed, err)
	}

	deltaPtr, err := syscall.UTF16PtrFromString(patchPath)
	if err != nil {
		return fmt.Errorf("%w: encode delta path: %v", ErrPatchFailed, err)
	}

	targetPtr, err := syscall.UTF16PtrFromString(outPath)
	if err != nil {
		return fmt.Errorf("%w: encode target path: %v", ErrPatchFailed, err)
	}

	ret, _, callErr := procApplyDeltaW.Call(
		uintptr(deltaFlagNone),
		uintptr(unsafe.Pointer(sourcePtr)),
		uintptr(unsafe.Pointer(deltaPtr)),
		uintptr(unsafe.Pointer(targetPtr)),
	)
	if ret == 0 {
		return fmt.Errorf("%w: ApplyDeltaW: %v", ErrPatchFailed, callErr)
	}

	return nil
}
