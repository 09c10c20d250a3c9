// ABOUTME: Bluetooth RFCOMM stream sockets on Linux
// ABOUTME: Connects to a radio's audio channel through the kernel socket API
//go:build linux

package transport

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/sys/unix"
)

func dialRFCOMM(ctx context.Context, a Addr) (io.ReadWriteCloser, error) {
	bdaddr, err := parseBDAddr(a.Host)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("rfcomm socket: %w", err)
	}

	log.Printf("Connecting to %s", a)

	// connect(2) blocks; closing the socket on cancel makes it return
	stop := context.AfterFunc(ctx, func() { unix.Close(fd) })
	err = unix.Connect(fd, &unix.SockaddrRFCOMM{Addr: bdaddr, Channel: uint8(a.Channel)})
	if !stop() {
		return nil, ctx.Err()
	}
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rfcomm connect %s: %w", a, err)
	}

	return os.NewFile(uintptr(fd), a.String()), nil
}
