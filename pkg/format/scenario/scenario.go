// Package scenario reads the SNR file holding the game script: the
// header info tables and the bytecode executed by the VM.
package scenario

import (
	"fmt"
)

const snrMagic = "SNR "

// Scenario is a parsed SNR file. The bytecode is kept as raw bytes and
// decoded on the fly by instruction readers.
type Scenario struct {
	tables     InfoTables
	entrypoint CodeAddress
	raw        []byte
}

// New parses the scenario header and info tables from data. The slice
// is retained.
func New(data []byte) (*Scenario, error) {
	r := NewReader(data, 0)
	var magic [4]byte
	for i := range magic {
		b, err := r.U8()
		if err != nil {
			return nil, fmt.Errorf("reading snr header: %w", err)
		}
		magic[i] = b
	}
	if string(magic[:]) != snrMagic {
		return nil, fmt.Errorf("snr: bad magic %q", magic)
	}
	size, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("reading snr header: %w", err)
	}
	if int(size) != len(data) {
		return nil, fmt.Errorf("snr: file size mismatch: header says %d, got %d", size, len(data))
	}
	// Six unidentified words follow the size.
	for i := 0; i < 6; i++ {
		if _, err := r.U32(); err != nil {
			return nil, fmt.Errorf("reading snr header: %w", err)
		}
	}
	codeOffset, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("reading snr header: %w", err)
	}

	tables, err := readInfoTables(data, r)
	if err != nil {
		return nil, err
	}

	return &Scenario{
		tables:     tables,
		entrypoint: CodeAddress(codeOffset),
		raw:        data,
	}, nil
}

// InfoTables returns the header tables.
func (s *Scenario) InfoTables() *InfoTables {
	return &s.tables
}

// Entrypoint returns the address execution starts at.
func (s *Scenario) Entrypoint() CodeAddress {
	return s.entrypoint
}

// Raw returns the whole file contents.
func (s *Scenario) Raw() []byte {
	return s.raw
}

// InstructionReader returns a cursor for decoding code at offset.
func (s *Scenario) InstructionReader(offset CodeAddress) *Reader {
	return NewReader(s.raw, offset)
}
