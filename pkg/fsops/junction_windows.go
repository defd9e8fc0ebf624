//go:build windows

package fsops

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// createJunction creates an NTFS directory junction at newname pointing
// at target, using the FSCTL_SET_REPARSE_POINT mount-point format.
// Junctions need no special user privilege, unlike a directory symlink,
// which is why HARD's Windows link farms use them instead.
func createJunction(target, newname string) error {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(newname, 0o755); err != nil {
		return err
	}

	newnamePtr, err := windows.UTF16PtrFromString(newname)
	if err != nil {
		return err
	}
	handle, err := windows.CreateFile(
		newnamePtr,
		windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
	if err != nil {
		return fmt.Errorf("opening junction directory %s: %w", newname, err)
	}
	defer windows.CloseHandle(handle)

	buf := buildMountPointReparseBuffer(absTarget)

	var bytesReturned uint32
	err = windows.DeviceIoControl(
		handle,
		windows.FSCTL_SET_REPARSE_POINT,
		&buf[0],
		uint32(len(buf)),
		nil,
		0,
		&bytesReturned,
		nil,
	)
	if err != nil {
		return fmt.Errorf("setting reparse point on %s: %w", newname, err)
	}
	return nil
}

const (
	ioReparseTagMountPoint = 0xA0000003
)

// buildMountPointReparseBuffer encodes target into the
// REPARSE_DATA_BUFFER layout required for FSCTL_SET_REPARSE_POINT mount
// points: substitute name and print name, both as NT device paths
// prefixed with \??\.
func buildMountPointReparseBuffer(target string) []byte {
	ntTarget := `\??\` + target
	substitute := windows.StringToUTF16(ntTarget)
	print := windows.StringToUTF16(target)

	// Drop the implicit NUL terminators StringToUTF16 appends; the
	// buffer's own length fields carry the boundary instead.
	substitute = substitute[:len(substitute)-1]
	print = print[:len(print)-1]

	substituteBytes := utf16ToBytes(substitute)
	printBytes := utf16ToBytes(print)

	// PathBuffer layout: substituteName, 2-byte NUL, printName, 2-byte NUL.
	pathBuffer := make([]byte, 0, len(substituteBytes)+2+len(printBytes)+2)
	pathBuffer = append(pathBuffer, substituteBytes...)
	pathBuffer = append(pathBuffer, 0, 0)
	pathBuffer = append(pathBuffer, printBytes...)
	pathBuffer = append(pathBuffer, 0, 0)

	reparseDataLength := 8 + len(pathBuffer)
	total := 8 + reparseDataLength

	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:4], ioReparseTagMountPoint)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(reparseDataLength))
	// buf[6:8] reserved, left zero.

	binary.LittleEndian.PutUint16(buf[8:10], 0)                          // SubstituteNameOffset
	binary.LittleEndian.PutUint16(buf[10:12], uint16(len(substituteBytes))) // SubstituteNameLength
	binary.LittleEndian.PutUint16(buf[12:14], uint16(len(substituteBytes)+2)) // PrintNameOffset
	binary.LittleEndian.PutUint16(buf[14:16], uint16(len(printBytes)))    // PrintNameLength

	copy(buf[16:], pathBuffer)
	return buf
}

func utf16ToBytes(u []uint16) []byte {
	b := make([]byte, len(u)*2)
	for i, v := range u {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
	return b
}
