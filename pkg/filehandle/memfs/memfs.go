// Package memfs is an in-memory filehandle.FS.
//
// Unlike a real filesystem it lets callers choose inode numbers, which is
// how tests construct inode-hash collisions between sibling directories.
// Directory listings are returned in name order and include "." and "..",
// like readdir(3).
package memfs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/marmos91/nfsfh/pkg/filehandle"
)

// RootInode is the inode number of the root directory.
const RootInode = 2

type node struct {
	ino      uint64
	mode     uint32
	gen      uint32
	hasGen   bool
	nlink    uint64
	size     int64
	target   string
	children map[string]*node
	parent   *node
}

// FS is an in-memory filesystem tree. It is safe for concurrent use.
type FS struct {
	mu        sync.RWMutex
	dev       uint64
	root      *node
	nextIno   uint64
	lstatErrs map[string]error

	openDirs  int
	openFiles int
}

// New creates an empty filesystem on device dev.
func New(dev uint64) *FS {
	root := &node{ino: RootInode, mode: filehandle.ModeDir | 0755, nlink: 2, children: map[string]*node{}}
	root.parent = root
	return &FS{
		dev:       dev,
		root:      root,
		nextIno:   1000,
		lstatErrs: map[string]error{},
	}
}

// Device returns the device number reported for every object.
func (m *FS) Device() uint64 { return m.dev }

// Mkdir creates a directory with an automatically assigned inode.
func (m *FS) Mkdir(name string) (uint64, error) {
	return m.add(name, 0, filehandle.ModeDir|0755, "")
}

// MkdirIno creates a directory with inode ino.
func (m *FS) MkdirIno(name string, ino uint64) error {
	_, err := m.add(name, ino, filehandle.ModeDir|0755, "")
	return err
}

// Create creates a regular file with an automatically assigned inode.
func (m *FS) Create(name string) (uint64, error) {
	return m.add(name, 0, filehandle.ModeRegular|0644, "")
}

// CreateIno creates a regular file with inode ino.
func (m *FS) CreateIno(name string, ino uint64) error {
	_, err := m.add(name, ino, filehandle.ModeRegular|0644, "")
	return err
}

// Symlink creates a symbolic link at name pointing to target.
func (m *FS) Symlink(target, name string) (uint64, error) {
	return m.add(name, 0, filehandle.ModeSymlink|0777, target)
}

// MkdirAll creates name and any missing parents.
func (m *FS) MkdirAll(name string) error {
	name = path.Clean(name)
	cur := ""
	for _, part := range strings.Split(strings.TrimPrefix(name, "/"), "/") {
		if part == "" {
			continue
		}
		cur += "/" + part
		if _, err := m.Lstat(cur); err == nil {
			continue
		}
		if _, err := m.Mkdir(cur); err != nil {
			return err
		}
	}
	return nil
}

// SetGeneration sets the native generation number reported for name.
func (m *FS) SetGeneration(name string, gen uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.walk(name, false)
	if err != nil {
		return err
	}
	n.gen = gen
	n.hasGen = true
	return nil
}

// SetLstatError makes every Lstat of name fail with err (nil clears it).
func (m *FS) SetLstatError(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.lstatErrs, path.Clean(name))
		return
	}
	m.lstatErrs[path.Clean(name)] = err
}

// Remove deletes a file or an empty directory.
func (m *FS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir, base, err := m.parentOf(name)
	if err != nil {
		return err
	}
	n, ok := dir.children[base]
	if !ok {
		return pathErr("remove", name, fs.ErrNotExist)
	}
	if n.children != nil && len(n.children) > 0 {
		return pathErr("remove", name, fmt.Errorf("directory not empty"))
	}
	delete(dir.children, base)
	n.nlink--
	return nil
}

// Rename moves oldname to newname, replacing any existing newname.
func (m *FS) Rename(oldname, newname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	odir, obase, err := m.parentOf(oldname)
	if err != nil {
		return err
	}
	n, ok := odir.children[obase]
	if !ok {
		return pathErr("rename", oldname, fs.ErrNotExist)
	}
	ndir, nbase, err := m.parentOf(newname)
	if err != nil {
		return err
	}

	delete(odir.children, obase)
	ndir.children[nbase] = n
	if n.children != nil {
		n.parent = ndir
	}
	return nil
}

// Link creates a hard link newname to the file at oldname.
func (m *FS) Link(oldname, newname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.walk(oldname, false)
	if err != nil {
		return err
	}
	if n.children != nil {
		return pathErr("link", oldname, fmt.Errorf("is a directory"))
	}
	dir, base, err := m.parentOf(newname)
	if err != nil {
		return err
	}
	if _, exists := dir.children[base]; exists {
		return pathErr("link", newname, fs.ErrExist)
	}
	dir.children[base] = n
	n.nlink++
	return nil
}

// OpenDirs returns the number of directory streams currently open.
func (m *FS) OpenDirs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.openDirs
}

// OpenFiles returns the number of files currently open.
func (m *FS) OpenFiles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.openFiles
}

// Lstat implements filehandle.FS.
func (m *FS) Lstat(name string) (filehandle.Stat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.lstatErrs[path.Clean(name)]; ok {
		return filehandle.Stat{}, pathErr("lstat", name, err)
	}
	n, err := m.walk(name, false)
	if err != nil {
		return filehandle.Stat{}, err
	}
	return m.stat(n), nil
}

// Fstat implements filehandle.FS.
func (m *FS) Fstat(f filehandle.File) (filehandle.Stat, error) {
	mf, ok := f.(*file)
	if !ok {
		return filehandle.Stat{}, fmt.Errorf("memfs: foreign file %T", f)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stat(mf.n), nil
}

// OpenDir implements filehandle.FS.
func (m *FS) OpenDir(name string) (filehandle.Dir, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.walk(name, true)
	if err != nil {
		return nil, err
	}
	if n.children == nil {
		return nil, pathErr("opendir", name, syscall.ENOTDIR)
	}

	names := make([]string, 0, len(n.children)+2)
	names = append(names, ".", "..")
	for child := range n.children {
		names = append(names, child)
	}
	sort.Strings(names[2:])

	m.openDirs++
	return &dir{fs: m, names: names}, nil
}

// Open implements filehandle.FS.
func (m *FS) Open(name string) (filehandle.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.walk(name, true)
	if err != nil {
		return nil, err
	}
	m.openFiles++
	return &file{fs: m, n: n}, nil
}

func (m *FS) stat(n *node) filehandle.Stat {
	return filehandle.Stat{
		Dev:    m.dev,
		Ino:    n.ino,
		Mode:   n.mode,
		Nlink:  n.nlink,
		Size:   n.size,
		Gen:    n.gen,
		HasGen: n.hasGen,
	}
}

func (m *FS) add(name string, ino uint64, mode uint32, target string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir, base, err := m.parentOf(name)
	if err != nil {
		return 0, err
	}
	if _, exists := dir.children[base]; exists {
		return 0, pathErr("create", name, fs.ErrExist)
	}
	if ino == 0 {
		m.nextIno++
		ino = m.nextIno
	}

	n := &node{ino: ino, mode: mode, nlink: 1, target: target}
	if mode&filehandle.ModeTypeMask == filehandle.ModeDir {
		n.children = map[string]*node{}
		n.parent = dir
		n.nlink = 2
	}
	dir.children[base] = n
	return ino, nil
}

// parentOf returns the directory containing name and name's last element.
// Callers hold m.mu.
func (m *FS) parentOf(name string) (*node, string, error) {
	name = path.Clean(name)
	if !path.IsAbs(name) || name == "/" {
		return nil, "", pathErr("lookup", name, fs.ErrInvalid)
	}
	dirName, base := path.Split(name)
	dir, err := m.walk(dirName, true)
	if err != nil {
		return nil, "", err
	}
	if dir.children == nil {
		return nil, "", pathErr("lookup", name, syscall.ENOTDIR)
	}
	return dir, base, nil
}

// walk resolves name. Symlinks in intermediate components are always
// followed; the final one only if followLast is set. Callers hold m.mu.
func (m *FS) walk(name string, followLast bool) (*node, error) {
	return m.walkDepth(name, followLast, 0)
}

func (m *FS) walkDepth(name string, followLast bool, hops int) (*node, error) {
	if hops > 8 {
		return nil, pathErr("lookup", name, fmt.Errorf("too many levels of symbolic links"))
	}
	if !path.IsAbs(name) {
		return nil, pathErr("lookup", name, fs.ErrInvalid)
	}

	cur := m.root
	parts := strings.Split(name, "/")
	for i, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = cur.parent
			continue
		}
		if cur.children == nil {
			return nil, pathErr("lookup", name, syscall.ENOTDIR)
		}
		next, ok := cur.children[part]
		if !ok {
			return nil, pathErr("lookup", name, fs.ErrNotExist)
		}
		last := i == len(parts)-1
		if next.mode&filehandle.ModeTypeMask == filehandle.ModeSymlink && (!last || followLast) {
			target, err := m.walkDepth(next.target, true, hops+1)
			if err != nil {
				return nil, err
			}
			next = target
		}
		cur = next
	}
	return cur, nil
}

func pathErr(op, name string, err error) error {
	return &os.PathError{Op: op, Path: name, Err: err}
}

type dir struct {
	fs     *FS
	names  []string
	off    int
	closed bool
}

func (d *dir) Readdirnames(n int) ([]string, error) {
	if d.off >= len(d.names) {
		if n <= 0 {
			return nil, nil
		}
		return nil, io.EOF
	}
	end := len(d.names)
	if n > 0 && d.off+n < end {
		end = d.off + n
	}
	out := append([]string(nil), d.names[d.off:end]...)
	d.off = end
	return out, nil
}

func (d *dir) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.fs.mu.Lock()
	d.fs.openDirs--
	d.fs.mu.Unlock()
	return nil
}

type file struct {
	fs     *FS
	n      *node
	closed bool
}

// Fd returns the inode number, which stands in for a descriptor.
func (f *file) Fd() uintptr { return uintptr(f.n.ino) }

func (f *file) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.fs.mu.Lock()
	f.fs.openFiles--
	f.fs.mu.Unlock()
	return nil
}
