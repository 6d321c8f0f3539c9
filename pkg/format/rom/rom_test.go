package rom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// buildArchive assembles a small archive by hand:
//
//	/hello.txt  "hello world"
//	/dir/inner.bin  {1,2,3,4}
func buildArchive() []byte {
	const (
		indexLen         = 128
		offsetMultiplier = 16
	)
	buf := make([]byte, headerSize+indexLen+64)
	copy(buf, "ROM2")
	binary.LittleEndian.PutUint32(buf[4:], version)
	binary.LittleEndian.PutUint32(buf[8:], indexLen)
	binary.LittleEndian.PutUint32(buf[12:], offsetMultiplier)

	index := buf[headerSize:]
	putEntry := func(pos int, nameOffset uint32, isDir bool, dataOffset, dataSize uint32) {
		if isDir {
			nameOffset |= 1 << 31
		}
		binary.LittleEndian.PutUint32(index[pos:], nameOffset)
		binary.LittleEndian.PutUint32(index[pos+4:], dataOffset)
		binary.LittleEndian.PutUint32(index[pos+8:], dataSize)
	}

	// Root directory at index offset 0, names relative to it.
	binary.LittleEndian.PutUint32(index[0:], 3)
	putEntry(4, 40, true, 0, 0)   // "."
	putEntry(16, 42, true, 4, 0)  // "dir" at index offset 4*16
	putEntry(28, 46, false, 10, 11)
	copy(index[40:], ".\x00")
	copy(index[42:], "dir\x00")
	copy(index[46:], "hello.txt\x00")

	// "dir" at index offset 64, names relative to it.
	binary.LittleEndian.PutUint32(index[64:], 3)
	putEntry(68, 40, true, 4, 0) // "."
	putEntry(80, 42, true, 0, 0) // ".."
	putEntry(92, 45, false, 11, 4)
	copy(index[104:], ".\x00")
	copy(index[106:], "..\x00")
	copy(index[109:], "inner.bin\x00")

	copy(buf[10*offsetMultiplier:], "hello world")
	copy(buf[11*offsetMultiplier:], []byte{1, 2, 3, 4})
	return buf
}

func TestOpenAndReadFile(t *testing.T) {
	archive, err := Open(bytes.NewReader(buildArchive()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	data, err := archive.ReadFile("/hello.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("ReadFile = %q, want %q", data, "hello world")
	}

	data, err = archive.ReadFile("dir/inner.bin")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3, 4}) {
		t.Errorf("ReadFile = %v, want [1 2 3 4]", data)
	}
}

func TestDotEntriesSkipped(t *testing.T) {
	archive, err := Open(bytes.NewReader(buildArchive()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	root := archive.Root()
	if _, ok := root.Subdirs["."]; ok {
		t.Error(`root contains "."`)
	}
	if _, ok := root.Subdirs["dir"].Subdirs[".."]; ok {
		t.Error(`subdirectory contains ".."`)
	}
}

func TestFindNotFound(t *testing.T) {
	archive, err := Open(bytes.NewReader(buildArchive()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := archive.Find("/missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find error = %v, want ErrNotFound", err)
	}
	if _, err := archive.Find("/nodir/inner.bin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find error = %v, want ErrNotFound", err)
	}
}

func TestOpenRejectsBadHeader(t *testing.T) {
	data := buildArchive()
	copy(data, "ROM3")
	if _, err := Open(bytes.NewReader(data)); err == nil {
		t.Error("Open accepted a bad magic")
	}

	data = buildArchive()
	binary.LittleEndian.PutUint32(data[4:], 0x20001)
	if _, err := Open(bytes.NewReader(data)); err == nil {
		t.Error("Open accepted an unknown version")
	}
}

func TestWalkOrder(t *testing.T) {
	archive, err := Open(bytes.NewReader(buildArchive()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var paths []string
	err = archive.Walk(func(p string, _ *File) error {
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{"/hello.txt", "/dir/inner.bin"}
	if len(paths) != len(want) {
		t.Fatalf("Walk visited %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("Walk[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestSectionReader(t *testing.T) {
	archive, err := Open(bytes.NewReader(buildArchive()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r, err := archive.Open("hello.txt")
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	buf := make([]byte, 5)
	if _, err := r.ReadAt(buf, 6); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "world" {
		t.Errorf("ReadAt = %q, want %q", buf, "world")
	}
}
