package asset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// buildArchive makes a flat ROM2 archive with a single file a.txt.
func buildArchive(content []byte) []byte {
	const (
		headerSize       = 32
		indexLen         = 48
		offsetMultiplier = 16
	)
	buf := make([]byte, headerSize+indexLen+((len(content)+15)&^15))
	copy(buf, "ROM2")
	binary.LittleEndian.PutUint32(buf[4:], 0x10001)
	binary.LittleEndian.PutUint32(buf[8:], indexLen)
	binary.LittleEndian.PutUint32(buf[12:], offsetMultiplier)

	index := buf[headerSize:]
	binary.LittleEndian.PutUint32(index[0:], 2)
	// "." entry.
	binary.LittleEndian.PutUint32(index[4:], 28|1<<31)
	// a.txt at absolute offset 80.
	binary.LittleEndian.PutUint32(index[16:], 30)
	binary.LittleEndian.PutUint32(index[20:], (headerSize+indexLen)/offsetMultiplier)
	binary.LittleEndian.PutUint32(index[24:], uint32(len(content)))
	copy(index[28:], ".\x00")
	copy(index[30:], "a.txt\x00")

	copy(buf[headerSize+indexLen:], content)
	return buf
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/picture/title.pic": "/picture/title.pic",
		"picture/Title.PIC":  "/picture/title.pic",
		"\\sound\\BGM01.nxa": "/sound/bgm01.nxa",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDirIO(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "picture", "a.pic"), []byte("pic"))

	dir, err := NewDirIO(root)
	if err != nil {
		t.Fatal(err)
	}
	data, err := dir.ReadFile("/PICTURE/A.pic")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "pic" {
		t.Fatalf("read %q", data)
	}

	_, err = dir.ReadFile("/picture/missing.pic")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}

	r, size, err := dir.Open("/picture/a.pic")
	if err != nil {
		t.Fatal(err)
	}
	if size != 3 {
		t.Fatalf("size %d", size)
	}
	buf := make([]byte, 3)
	if _, err := r.ReadAt(buf, 0); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "pic" {
		t.Fatalf("ReadAt %q", buf)
	}
}

func TestDirIOMixedCaseTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Picture", "Title.PIC"), []byte("pic"))

	dir, err := NewDirIO(root)
	if err != nil {
		t.Fatal(err)
	}
	data, err := dir.ReadFile("/picture/title.pic")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "pic" {
		t.Fatalf("read %q", data)
	}
}

func TestRomIO(t *testing.T) {
	rio, err := NewRomIOFromReader(bytes.NewReader(buildArchive([]byte("hello"))), "test.rom")
	if err != nil {
		t.Fatal(err)
	}
	data, err := rio.ReadFile("/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("read %q", data)
	}

	_, err = rio.ReadFile("/b.txt")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestLayeredShadowing(t *testing.T) {
	patchRoot := t.TempDir()
	dataRoot := t.TempDir()
	writeFile(t, filepath.Join(patchRoot, "a.txt"), []byte("patched"))
	writeFile(t, filepath.Join(dataRoot, "a.txt"), []byte("base"))
	writeFile(t, filepath.Join(dataRoot, "b.txt"), []byte("base only"))

	patch, err := NewDirIO(patchRoot)
	if err != nil {
		t.Fatal(err)
	}
	base, err := NewDirIO(dataRoot)
	if err != nil {
		t.Fatal(err)
	}
	layered, err := NewLayeredIO(patch, base)
	if err != nil {
		t.Fatal(err)
	}

	if data, err := layered.ReadFile("/a.txt"); err != nil || string(data) != "patched" {
		t.Fatalf("shadowed read: %q, %v", data, err)
	}
	if data, err := layered.ReadFile("/b.txt"); err != nil || string(data) != "base only" {
		t.Fatalf("fallthrough read: %q, %v", data, err)
	}
	if _, err := layered.ReadFile("/c.txt"); err == nil {
		t.Fatal("want not found")
	}
}

func TestOpenDirLayered(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patch", "a.txt"), []byte("patched"))
	writeFile(t, filepath.Join(root, "data.rom"), buildArchive([]byte("from rom")))

	layered, err := OpenDirLayered(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(layered.Layers()) != 2 {
		t.Fatalf("layer count %d", len(layered.Layers()))
	}
	if data, err := layered.ReadFile("/a.txt"); err != nil || string(data) != "patched" {
		t.Fatalf("patch layer: %q, %v", data, err)
	}

	empty := t.TempDir()
	if _, err := OpenDirLayered(empty); err == nil {
		t.Fatal("want error for empty asset directory")
	}
}

type blobAsset struct {
	data []byte
}

func TestServerSharesDecodedAssets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.bin"), []byte{1, 2, 3})

	dir, err := NewDirIO(root)
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(dir)

	decodes := 0
	decode := func(data []byte) (*blobAsset, error) {
		decodes++
		return &blobAsset{data: data}, nil
	}

	var cache typedCache[blobAsset]
	v1, err := cache.load(srv, "/a.bin", decode)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := cache.load(srv, "/A.BIN", decode)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != v2 {
		t.Fatal("decoded asset not shared")
	}
	if decodes != 1 {
		t.Fatalf("decode ran %d times", decodes)
	}
}

func TestServerDecodeError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bad.bin"), []byte{0xff})

	dir, err := NewDirIO(root)
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(dir)

	sentinel := errors.New("bad magic")
	var cache typedCache[blobAsset]
	_, err = cache.load(srv, "/bad.bin", func([]byte) (*blobAsset, error) {
		return nil, sentinel
	})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("want DecodeError, got %v", err)
	}
	if !errors.Is(err, sentinel) {
		t.Fatal("decode error does not unwrap")
	}
	if de.Path != "/bad.bin" {
		t.Fatalf("path %q", de.Path)
	}
}

func TestCacheSingleLoad(t *testing.T) {
	cache := NewCache[int, blobAsset]()

	loads := 0
	load := func() (*blobAsset, error) {
		loads++
		return &blobAsset{data: []byte{7}}, nil
	}

	v1, err := cache.GetOrLoad(1, load)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := cache.GetOrLoad(1, load)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != v2 {
		t.Fatal("cached value not shared")
	}
	if loads != 1 {
		t.Fatalf("load ran %d times", loads)
	}
	if cache.Len() != 1 {
		t.Fatalf("len %d", cache.Len())
	}
}

func TestCacheErrorNotCached(t *testing.T) {
	cache := NewCache[string, blobAsset]()

	calls := 0
	_, err := cache.GetOrLoad("k", func() (*blobAsset, error) {
		calls++
		return nil, errors.New("transient")
	})
	if err == nil {
		t.Fatal("want error")
	}
	v, err := cache.GetOrLoad("k", func() (*blobAsset, error) {
		calls++
		return &blobAsset{}, nil
	})
	if err != nil || v == nil {
		t.Fatalf("retry failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("load ran %d times", calls)
	}
}

func TestCacheConcurrentWaitersShareLoad(t *testing.T) {
	cache := NewCache[int, blobAsset]()

	var mu sync.Mutex
	loads := 0
	gate := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]*blobAsset, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := cache.GetOrLoad(1, func() (*blobAsset, error) {
				mu.Lock()
				loads++
				mu.Unlock()
				<-gate
				return &blobAsset{data: []byte{42}}, nil
			})
			if err != nil {
				t.Error(err)
			}
			results[i] = v
		}(i)
	}
	close(gate)
	wg.Wait()

	if loads != 1 {
		t.Fatalf("load ran %d times", loads)
	}
	for _, v := range results[1:] {
		if v != results[0] {
			t.Fatal("waiters got different values")
		}
	}
}
