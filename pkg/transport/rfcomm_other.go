// ABOUTME: RFCOMM placeholder for platforms without Bluetooth socket support
// ABOUTME: Dialing an rfcomm address fails with ErrUnsupportedScheme
//go:build !linux

package transport

import (
	"context"
	"fmt"
	"io"
	"runtime"
)

func dialRFCOMM(ctx context.Context, a Addr) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("%w: rfcomm is not available on %s", ErrUnsupportedScheme, runtime.GOOS)
}
