package video

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Mp4PacketSource demuxes the video track of an ISO-BMFF (mp4) file
// into Annex B H.264 packets. The sample tables are resolved up front;
// NextPacket then reads one sample at a time, so large movies are
// never held in memory whole.
type Mp4PacketSource struct {
	r         io.ReaderAt
	timescale uint32
	samples   []mp4Sample

	// Length of the per-NAL size prefix in the samples, from avcC.
	lengthSize int
	// SPS and PPS in Annex B form, prepended to the first packet.
	parameterSets []byte

	next int
}

type mp4Sample struct {
	offset   uint64
	size     uint32
	start    uint64
	duration uint32
}

type mp4Box struct {
	boxType string
	// Payload bounds within the file.
	start uint64
	end   uint64
}

// NewMp4PacketSource parses the movie header and locates the samples
// of the first video track.
func NewMp4PacketSource(r io.ReaderAt, size int64) (*Mp4PacketSource, error) {
	s := &Mp4PacketSource{r: r}

	moov, err := findBox(r, 0, uint64(size), "moov")
	if err != nil {
		return nil, fmt.Errorf("mp4: %w", err)
	}

	track, err := s.findVideoTrack(moov)
	if err != nil {
		return nil, fmt.Errorf("mp4: %w", err)
	}
	if err := s.parseTrack(track); err != nil {
		return nil, fmt.Errorf("mp4: %w", err)
	}
	return s, nil
}

// TimeBase is the number of track time units per second.
func (s *Mp4PacketSource) TimeBase() uint32 {
	return s.timescale
}

// NextPacket returns the next sample converted to Annex B.
func (s *Mp4PacketSource) NextPacket() (FrameTiming, []byte, error) {
	if s.next >= len(s.samples) {
		return FrameTiming{}, nil, io.EOF
	}
	sample := s.samples[s.next]

	raw := make([]byte, sample.size)
	if _, err := s.r.ReadAt(raw, int64(sample.offset)); err != nil {
		return FrameTiming{}, nil, fmt.Errorf("mp4: reading sample %d: %w", s.next, err)
	}

	var packet []byte
	if s.next == 0 {
		packet = append(packet, s.parameterSets...)
	}
	packet, err := appendAnnexB(packet, raw, s.lengthSize)
	if err != nil {
		return FrameTiming{}, nil, fmt.Errorf("mp4: sample %d: %w", s.next, err)
	}

	timing := FrameTiming{
		FrameNumber: uint32(s.next),
		StartTime:   sample.start,
		Duration:    sample.duration,
	}
	s.next++
	return timing, packet, nil
}

// appendAnnexB rewrites length-prefixed NAL units with start codes.
func appendAnnexB(dst, sample []byte, lengthSize int) ([]byte, error) {
	for len(sample) > 0 {
		if len(sample) < lengthSize {
			return nil, fmt.Errorf("truncated NAL length prefix")
		}
		var nalLen uint64
		for i := 0; i < lengthSize; i++ {
			nalLen = nalLen<<8 | uint64(sample[i])
		}
		sample = sample[lengthSize:]
		if nalLen > uint64(len(sample)) {
			return nil, fmt.Errorf("NAL unit length %d exceeds sample", nalLen)
		}
		dst = append(dst, 0, 0, 0, 1)
		dst = append(dst, sample[:nalLen]...)
		sample = sample[nalLen:]
	}
	return dst, nil
}

// findVideoTrack walks moov's traks for the one whose handler is vide.
func (s *Mp4PacketSource) findVideoTrack(moov mp4Box) (mp4Box, error) {
	offset := moov.start
	for offset < moov.end {
		box, next, err := readBox(s.r, offset, moov.end)
		if err != nil {
			return mp4Box{}, err
		}
		if box.boxType == "trak" {
			mdia, err := findBox(s.r, box.start, box.end, "mdia")
			if err == nil && s.isVideoHandler(mdia) {
				return box, nil
			}
		}
		offset = next
	}
	return mp4Box{}, fmt.Errorf("no video track")
}

func (s *Mp4PacketSource) isVideoHandler(mdia mp4Box) bool {
	hdlr, err := findBox(s.r, mdia.start, mdia.end, "hdlr")
	if err != nil {
		return false
	}
	// Full box header, pre_defined, then the handler type.
	var buf [12]byte
	if _, err := s.r.ReadAt(buf[:], int64(hdlr.start)); err != nil {
		return false
	}
	return string(buf[8:12]) == "vide"
}

func (s *Mp4PacketSource) parseTrack(track mp4Box) error {
	mdia, err := findBox(s.r, track.start, track.end, "mdia")
	if err != nil {
		return err
	}
	if err := s.parseMdhd(mdia); err != nil {
		return err
	}

	minf, err := findBox(s.r, mdia.start, mdia.end, "minf")
	if err != nil {
		return err
	}
	stbl, err := findBox(s.r, minf.start, minf.end, "stbl")
	if err != nil {
		return err
	}

	if err := s.parseStsd(stbl); err != nil {
		return err
	}

	durations, err := s.parseStts(stbl)
	if err != nil {
		return err
	}
	sizes, err := s.parseStsz(stbl, len(durations))
	if err != nil {
		return err
	}
	offsets, err := s.parseChunks(stbl, sizes)
	if err != nil {
		return err
	}

	s.samples = make([]mp4Sample, len(durations))
	var start uint64
	for i := range s.samples {
		s.samples[i] = mp4Sample{
			offset:   offsets[i],
			size:     sizes[i],
			start:    start,
			duration: durations[i],
		}
		start += uint64(durations[i])
	}
	return nil
}

func (s *Mp4PacketSource) parseMdhd(mdia mp4Box) error {
	mdhd, err := findBox(s.r, mdia.start, mdia.end, "mdhd")
	if err != nil {
		return err
	}
	var head [4]byte
	if _, err := s.r.ReadAt(head[:], int64(mdhd.start)); err != nil {
		return err
	}
	// Version 1 stores creation and modification time as 64 bits.
	timescaleOffset := uint64(12)
	if head[0] == 1 {
		timescaleOffset = 20
	}
	var buf [4]byte
	if _, err := s.r.ReadAt(buf[:], int64(mdhd.start+timescaleOffset)); err != nil {
		return err
	}
	s.timescale = binary.BigEndian.Uint32(buf[:])
	if s.timescale == 0 {
		return fmt.Errorf("zero media timescale")
	}
	return nil
}

// parseStsd digs the avcC decoder configuration out of the sample
// description.
func (s *Mp4PacketSource) parseStsd(stbl mp4Box) error {
	stsd, err := findBox(s.r, stbl.start, stbl.end, "stsd")
	if err != nil {
		return err
	}
	// Full box header plus entry count, then the first sample entry.
	entryOffset := stsd.start + 8
	entry, _, err := readBox(s.r, entryOffset, stsd.end)
	if err != nil {
		return err
	}
	// A visual sample entry has 78 bytes of fixed fields before its
	// child boxes.
	avcC, err := findBox(s.r, entry.start+78, entry.end, "avcC")
	if err != nil {
		return fmt.Errorf("sample entry %q has no decoder config: %w", entry.boxType, err)
	}

	config := make([]byte, avcC.end-avcC.start)
	if _, err := s.r.ReadAt(config, int64(avcC.start)); err != nil {
		return err
	}
	if len(config) < 7 {
		return fmt.Errorf("decoder config too short")
	}
	s.lengthSize = int(config[4]&0x3) + 1

	read := func(data []byte, count int) ([]byte, error) {
		for i := 0; i < count; i++ {
			if len(data) < 2 {
				return nil, fmt.Errorf("truncated parameter set")
			}
			n := int(binary.BigEndian.Uint16(data))
			data = data[2:]
			if len(data) < n {
				return nil, fmt.Errorf("truncated parameter set")
			}
			s.parameterSets = append(s.parameterSets, 0, 0, 0, 1)
			s.parameterSets = append(s.parameterSets, data[:n]...)
			data = data[n:]
		}
		return data, nil
	}

	rest := config[6:]
	rest, err = read(rest, int(config[5]&0x1f))
	if err != nil {
		return err
	}
	if len(rest) < 1 {
		return fmt.Errorf("truncated parameter set")
	}
	if _, err := read(rest[1:], int(rest[0])); err != nil {
		return err
	}
	return nil
}

func (s *Mp4PacketSource) parseStts(stbl mp4Box) ([]uint32, error) {
	stts, err := findBox(s.r, stbl.start, stbl.end, "stts")
	if err != nil {
		return nil, err
	}
	data, err := readFullBoxPayload(s.r, stts)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("truncated stts")
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]

	var durations []uint32
	for i := uint32(0); i < count; i++ {
		if len(data) < 8 {
			return nil, fmt.Errorf("truncated stts entry")
		}
		sampleCount := binary.BigEndian.Uint32(data)
		delta := binary.BigEndian.Uint32(data[4:])
		data = data[8:]
		for j := uint32(0); j < sampleCount; j++ {
			durations = append(durations, delta)
		}
	}
	return durations, nil
}

func (s *Mp4PacketSource) parseStsz(stbl mp4Box, sampleCount int) ([]uint32, error) {
	stsz, err := findBox(s.r, stbl.start, stbl.end, "stsz")
	if err != nil {
		return nil, err
	}
	data, err := readFullBoxPayload(s.r, stsz)
	if err != nil {
		return nil, err
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("truncated stsz")
	}
	uniform := binary.BigEndian.Uint32(data)
	count := binary.BigEndian.Uint32(data[4:])
	if int(count) != sampleCount {
		return nil, fmt.Errorf("stsz has %d samples, stts has %d", count, sampleCount)
	}
	sizes := make([]uint32, count)
	if uniform != 0 {
		for i := range sizes {
			sizes[i] = uniform
		}
		return sizes, nil
	}
	data = data[8:]
	if len(data) < 4*int(count) {
		return nil, fmt.Errorf("truncated stsz table")
	}
	for i := range sizes {
		sizes[i] = binary.BigEndian.Uint32(data[4*i:])
	}
	return sizes, nil
}

// parseChunks resolves per-sample file offsets from the
// sample-to-chunk map and the chunk offset table.
func (s *Mp4PacketSource) parseChunks(stbl mp4Box, sizes []uint32) ([]uint64, error) {
	chunkOffsets, err := s.parseChunkOffsets(stbl)
	if err != nil {
		return nil, err
	}

	stsc, err := findBox(s.r, stbl.start, stbl.end, "stsc")
	if err != nil {
		return nil, err
	}
	data, err := readFullBoxPayload(s.r, stsc)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("truncated stsc")
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]
	if len(data) < 12*int(count) {
		return nil, fmt.Errorf("truncated stsc table")
	}

	type stscEntry struct {
		firstChunk      uint32
		samplesPerChunk uint32
	}
	entries := make([]stscEntry, count)
	for i := range entries {
		entries[i] = stscEntry{
			firstChunk:      binary.BigEndian.Uint32(data[12*i:]),
			samplesPerChunk: binary.BigEndian.Uint32(data[12*i+4:]),
		}
	}

	offsets := make([]uint64, 0, len(sizes))
	sample := 0
	for i, entry := range entries {
		lastChunk := uint32(len(chunkOffsets))
		if i+1 < len(entries) {
			lastChunk = entries[i+1].firstChunk - 1
		}
		for chunk := entry.firstChunk; chunk <= lastChunk; chunk++ {
			if int(chunk) > len(chunkOffsets) {
				return nil, fmt.Errorf("stsc chunk %d out of range", chunk)
			}
			pos := chunkOffsets[chunk-1]
			for j := uint32(0); j < entry.samplesPerChunk; j++ {
				if sample >= len(sizes) {
					return offsets, nil
				}
				offsets = append(offsets, pos)
				pos += uint64(sizes[sample])
				sample++
			}
		}
	}
	if sample != len(sizes) {
		return nil, fmt.Errorf("chunk map covers %d of %d samples", sample, len(sizes))
	}
	return offsets, nil
}

func (s *Mp4PacketSource) parseChunkOffsets(stbl mp4Box) ([]uint64, error) {
	wide := false
	box, err := findBox(s.r, stbl.start, stbl.end, "stco")
	if err != nil {
		box, err = findBox(s.r, stbl.start, stbl.end, "co64")
		if err != nil {
			return nil, fmt.Errorf("no chunk offset table")
		}
		wide = true
	}
	data, err := readFullBoxPayload(s.r, box)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("truncated chunk offset table")
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]

	offsets := make([]uint64, count)
	if wide {
		if len(data) < 8*int(count) {
			return nil, fmt.Errorf("truncated chunk offset table")
		}
		for i := range offsets {
			offsets[i] = binary.BigEndian.Uint64(data[8*i:])
		}
		return offsets, nil
	}
	if len(data) < 4*int(count) {
		return nil, fmt.Errorf("truncated chunk offset table")
	}
	for i := range offsets {
		offsets[i] = uint64(binary.BigEndian.Uint32(data[4*i:]))
	}
	return offsets, nil
}

// readBox reads one box header at offset, returning the box and the
// offset of the next sibling.
func readBox(r io.ReaderAt, offset, end uint64) (mp4Box, uint64, error) {
	if offset+8 > end {
		return mp4Box{}, 0, fmt.Errorf("truncated box header at %d", offset)
	}
	var head [8]byte
	if _, err := r.ReadAt(head[:], int64(offset)); err != nil {
		return mp4Box{}, 0, err
	}
	size := uint64(binary.BigEndian.Uint32(head[:4]))
	boxType := string(head[4:8])
	payload := offset + 8

	switch size {
	case 0:
		size = end - offset
	case 1:
		var large [8]byte
		if _, err := r.ReadAt(large[:], int64(offset+8)); err != nil {
			return mp4Box{}, 0, err
		}
		size = binary.BigEndian.Uint64(large[:])
		payload = offset + 16
	}
	if size < payload-offset || offset+size > end {
		return mp4Box{}, 0, fmt.Errorf("box %q at %d has invalid size %d", boxType, offset, size)
	}
	return mp4Box{boxType: boxType, start: payload, end: offset + size}, offset + size, nil
}

// findBox scans siblings in [offset, end) for the first box of a type.
func findBox(r io.ReaderAt, offset, end uint64, boxType string) (mp4Box, error) {
	for offset < end {
		box, next, err := readBox(r, offset, end)
		if err != nil {
			return mp4Box{}, err
		}
		if box.boxType == boxType {
			return box, nil
		}
		offset = next
	}
	return mp4Box{}, fmt.Errorf("box %q not found", boxType)
}

// readFullBoxPayload returns a full box's payload with the version and
// flags word stripped.
func readFullBoxPayload(r io.ReaderAt, box mp4Box) ([]byte, error) {
	if box.end-box.start < 4 {
		return nil, fmt.Errorf("box %q too short", box.boxType)
	}
	data := make([]byte, box.end-box.start-4)
	if _, err := r.ReadAt(data, int64(box.start+4)); err != nil {
		return nil, err
	}
	return data, nil
}
