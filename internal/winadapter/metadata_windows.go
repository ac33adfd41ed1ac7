//go:build windows

// Package winadapter implements the MetadataAdapter and RegistryAdapter
// capabilities on Windows hosts: PE version-resource reading via
// golang.org/x/sys/windows, and registry value lookups via
// golang.org/x/sys/windows/registry.
package winadapter

import (
	"context"
	"encoding/binary"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// metadataTimeout bounds how long a single executable's version resource
// read may take before it's abandoned.
const metadataTimeout = 4 * time.Second

// Metadata reads ProductName/FileDescription from a PE file's version
// resource.
type Metadata struct{}

// Extract implements detect.MetadataAdapter.
func (Metadata) Extract(exePath string) (product, description string, ok bool) {
	type result struct {
		product, description string
		ok                   bool
	}
	ch := make(chan result, 1)

	go func() {
		p, d, o := extractVersionInfo(exePath)
		ch <- result{p, d, o}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), metadataTimeout)
	defer cancel()

	select {
	case r := <-ch:
		return r.product, r.description, r.ok
	case <-ctx.Done():
		// Timeout is treated as absence of data, not failure.
		return "", "", false
	}
}

func extractVersionInfo(exePath string) (product, description string, ok bool) {
	size, err := windows.GetFileVersionInfoSize(exePath, nil)
	if err != nil || size == 0 {
		return "", "", false
	}

	// Bounded to an 8 MiB output buffer so a malformed or hostile PE
	// header can't force an unbounded allocation.
	const maxVersionInfoSize = 8 * 1024 * 1024
	if size > maxVersionInfoSize {
		size = maxVersionInfoSize
	}

	block := make([]byte, size)
	if err := windows.GetFileVersionInfo(exePath, 0, size, unsafe.Pointer(&block[0])); err != nil {
		return "", "", false
	}

	langCodePage, ok := queryTranslation(block)
	if !ok {
		langCodePage = "040904B0" // en-US, Unicode code page, the common default.
	}

	product, hasProduct := queryStringValue(block, langCodePage, "ProductName")
	description, hasDescription := queryStringValue(block, langCodePage, "FileDescription")

	return product, description, hasProduct || hasDescription
}

// queryTranslation reads the \VarFileInfo\Translation block and returns the
// first language/codepage pair formatted as an 8-hex-digit string, which is
// how it's embedded in the \StringFileInfo\<lcp>\ subblock path.
func queryTranslation(block []byte) (string, bool) {
	var ptr unsafe.Pointer
	var size uint32
	if err := windows.VerQueryValue(unsafe.Pointer(&block[0]), `\VarFileInfo\Translation`, &ptr, &size); err != nil || size < 4 {
		return "", false
	}
	raw := unsafe.Slice((*byte)(ptr), 4)
	lang := binary.LittleEndian.Uint16(raw[0:2])
	codepage := binary.LittleEndian.Uint16(raw[2:4])
	return hex16(lang) + hex16(codepage), true
}

func queryStringValue(block []byte, langCodePage, name string) (string, bool) {
	path := `\StringFileInfo\` + langCodePage + `\` + name
	var ptr unsafe.Pointer
	var size uint32
	if err := windows.VerQueryValue(unsafe.Pointer(&block[0]), path, &ptr, &size); err != nil || size == 0 {
		return "", false
	}
	u16 := unsafe.Slice((*uint16)(ptr), size)
	return windows.UTF16ToString(u16), true
}

func hex16(v uint16) string {
	const digits = "0123456789ABCDEF"
	b := [4]byte{
		digits[(v>>12)&0xF],
		digits[(v>>8)&0xF],
		digits[(v>>4)&0xF],
		digits[v&0xF],
	}
	return string(b[:])
}
