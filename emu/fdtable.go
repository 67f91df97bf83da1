package emu

import (
	"os"
	"sync"
)

// FileDescriptor represents an open file descriptor.
type FileDescriptor struct {
	HostFile *os.File // Host file handle (nil for stdio)
	Path     string   // Original path
	Flags    int      // Open flags
	IsOpen   bool     // Whether the FD is currently open
}

// FDTable manages file descriptors for the file syscalls.
type FDTable struct {
	fds    map[int32]*FileDescriptor
	nextFD int32
	mu     sync.Mutex
}

// NewFDTable creates a new file descriptor table with standard streams initialized.
func NewFDTable() *FDTable {
	t := &FDTable{
		fds:    make(map[int32]*FileDescriptor),
		nextFD: 3,
	}

	// Standard streams are served by the syscall handler's own readers and
	// writers; they only need to exist here.
	t.fds[0] = &FileDescriptor{Path: "stdin", IsOpen: true}
	t.fds[1] = &FileDescriptor{Path: "stdout", IsOpen: true}
	t.fds[2] = &FileDescriptor{Path: "stderr", IsOpen: true}

	return t
}

// Open opens a host file and returns a new file descriptor.
func (t *FDTable) Open(path string, flags int, mode os.FileMode) (int32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	hostFile, err := os.OpenFile(path, flags, mode)
	if err != nil {
		return -1, err
	}

	fd := t.nextFD
	t.nextFD++

	t.fds[fd] = &FileDescriptor{
		HostFile: hostFile,
		Path:     path,
		Flags:    flags,
		IsOpen:   true,
	}

	return fd, nil
}

// Close closes a file descriptor.
func (t *FDTable) Close(fd int32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.fds[fd]
	if !exists || !entry.IsOpen {
		return os.ErrInvalid
	}

	if entry.HostFile != nil {
		if err := entry.HostFile.Close(); err != nil {
			return err
		}
	}

	entry.HostFile = nil
	entry.IsOpen = false

	return nil
}

// CloseAll closes every host file still open.
func (t *FDTable) CloseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, entry := range t.fds {
		if entry.HostFile != nil {
			_ = entry.HostFile.Close()
			entry.HostFile = nil
		}
		entry.IsOpen = false
	}
}

// IsOpen checks if a file descriptor is open.
func (t *FDTable) IsOpen(fd int32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.fds[fd]
	return exists && entry.IsOpen
}

// hostFile returns the host file behind fd, or nil for stdio and closed FDs.
func (t *FDTable) hostFile(fd int32) *os.File {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.fds[fd]
	if !exists || !entry.IsOpen {
		return nil
	}
	return entry.HostFile
}

// Read reads from a host file descriptor into a buffer.
func (t *FDTable) Read(fd int32, buf []byte) (int, error) {
	hostFile := t.hostFile(fd)
	if hostFile == nil {
		return 0, os.ErrInvalid
	}
	return hostFile.Read(buf)
}

// Write writes a buffer to a host file descriptor.
func (t *FDTable) Write(fd int32, buf []byte) (int, error) {
	hostFile := t.hostFile(fd)
	if hostFile == nil {
		return 0, os.ErrInvalid
	}
	return hostFile.Write(buf)
}
