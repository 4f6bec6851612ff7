// Package scanner captures barcode payloads from a capture device. A device is
// held only for the lifetime of one session and is always released.
package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
)

var (
	ErrNoPayload   = errors.New("capture ended without a barcode")
	ErrDeviceInUse = errors.New("capture device already in use")
)

var barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)

// ValidBarcode accepts EAN-8 through GTIN-14 payloads.
func ValidBarcode(code string) bool {
	return barcodePattern.MatchString(strings.TrimSpace(code))
}

// Session is an exclusive hold on a capture device.
type Session interface {
	// Next blocks until the device decodes a payload.
	Next(ctx context.Context) (string, error)
	Close() error
}

type Capture interface {
	Open(ctx context.Context) (Session, error)
}

// ScanOnce opens a session, returns the first valid payload and releases the
// device on every exit path.
func ScanOnce(ctx context.Context, c Capture) (payload string, err error) {
	s, err := c.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("open capture device: %w", err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("release capture device: %w", cerr)
		}
	}()
	for {
		code, err := s.Next(ctx)
		if err != nil {
			return "", err
		}
		code = strings.TrimSpace(code)
		if ValidBarcode(code) {
			return code, nil
		}
	}
}

// LineDevice reads newline-terminated payloads, which is how keyboard-wedge
// scanners and serial readers emit codes. Path "-" reads standard input.
//
// Standard input cannot be closed or rewound, so it is read by one goroutine
// for the lifetime of the device and every session draws from it. A line
// read while no session is open waits for the next one. Reopen the same
// LineDevice rather than creating a second one over the same reader.
type LineDevice struct {
	Path  string
	Stdin io.Reader

	mu    sync.Mutex
	open  bool
	once  sync.Once
	stdin chan lineResult
}

func (d *LineDevice) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return nil, ErrDeviceInUse
	}
	s := &lineSession{device: d, done: make(chan struct{})}
	if d.Path == "" || d.Path == "-" {
		d.once.Do(func() {
			in := d.Stdin
			if in == nil {
				in = os.Stdin
			}
			d.stdin = make(chan lineResult)
			go pump(in, d.stdin, nil)
		})
		s.lines = d.stdin
	} else {
		f, err := os.Open(d.Path)
		if err != nil {
			return nil, err
		}
		s.file = f
		s.lines = make(chan lineResult)
		go pump(f, s.lines, s.done)
	}
	d.open = true
	return s, nil
}

func (d *LineDevice) release() {
	d.mu.Lock()
	d.open = false
	d.mu.Unlock()
}

type lineResult struct {
	line string
	err  error
}

type lineSession struct {
	device *LineDevice
	file   io.Closer
	lines  chan lineResult
	done   chan struct{}
	once   sync.Once
}

// pump sends each line on out, then a read error if any, then closes out.
// A nil done never fires.
func pump(r io.Reader, out chan<- lineResult, done <-chan struct{}) {
	defer close(out)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case out <- lineResult{line: sc.Text()}:
		case <-done:
			return
		}
	}
	if err := sc.Err(); err != nil {
		select {
		case out <- lineResult{err: err}:
		case <-done:
		}
	}
}

func (s *lineSession) Next(ctx context.Context) (string, error) {
	select {
	case r, ok := <-s.lines:
		if !ok {
			return "", ErrNoPayload
		}
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.done:
		return "", ErrNoPayload
	}
}

// Close is idempotent. The device file, if any, is closed; the shared
// standard input reader keeps running.
func (s *lineSession) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if s.file != nil {
			err = s.file.Close()
		}
		s.device.release()
	})
	return err
}
