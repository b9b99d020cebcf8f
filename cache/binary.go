package cache

import (
	"encoding/binary"
	"fmt"

	"github.com/dekarrin/parsekit/parser"
)

func encInt(i int) []byte {
	buf := make([]byte, 0, 8)
	return binary.AppendVarint(buf, int64(i))
}

func decInt(data []byte) (int, int, error) {
	val, n := binary.Varint(data)
	if n <= 0 {
		return 0, 0, fmt.Errorf("truncated int")
	}
	return int(val), n, nil
}

func encString(s string) []byte {
	out := encInt(len(s))
	out = append(out, s...)
	return out
}

func decString(data []byte) (string, int, error) {
	n, read, err := decInt(data)
	if err != nil {
		return "", 0, fmt.Errorf("string length: %w", err)
	}
	data = data[read:]
	if n < 0 || n > len(data) {
		return "", 0, fmt.Errorf("truncated string")
	}
	return string(data[:n]), read + n, nil
}

func encBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

func decBool(data []byte) (bool, int, error) {
	if len(data) < 1 {
		return false, 0, fmt.Errorf("truncated bool")
	}
	return data[0] != 0, 1, nil
}

// MarshalBinary implements encoding.BinaryMarshaler, so FrozenGrammar can be
// passed directly to rezi.EncBinary.
func (fg FrozenGrammar) MarshalBinary() ([]byte, error) {
	var out []byte
	out = append(out, encInt(fg.Version)...)
	out = append(out, encInt(fg.RootID)...)
	out = append(out, encInt(len(fg.Entries))...)
	for _, e := range fg.Entries {
		out = append(out, encString(e.EqClass)...)
		out = append(out, encBool(e.Disposable)...)
		out = append(out, encBool(e.Nullable)...)
		out = append(out, encBool(e.Stateful)...)
	}
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, so FrozenGrammar
// can be passed directly to rezi.DecBinary.
func (fg *FrozenGrammar) UnmarshalBinary(data []byte) error {
	version, n, err := decInt(data)
	if err != nil {
		return fmt.Errorf("version: %w", err)
	}
	data = data[n:]

	rootID, n, err := decInt(data)
	if err != nil {
		return fmt.Errorf("root id: %w", err)
	}
	data = data[n:]

	count, n, err := decInt(data)
	if err != nil {
		return fmt.Errorf("entry count: %w", err)
	}
	data = data[n:]
	if count < 0 {
		return fmt.Errorf("negative entry count %d", count)
	}

	entries := make([]parser.PrecomputedFreeze, count)
	for i := 0; i < count; i++ {
		eqClass, n, err := decString(data)
		if err != nil {
			return fmt.Errorf("entry %d eq class: %w", i, err)
		}
		data = data[n:]

		disposable, n, err := decBool(data)
		if err != nil {
			return fmt.Errorf("entry %d disposable: %w", i, err)
		}
		data = data[n:]

		nullable, n, err := decBool(data)
		if err != nil {
			return fmt.Errorf("entry %d nullable: %w", i, err)
		}
		data = data[n:]

		stateful, n, err := decBool(data)
		if err != nil {
			return fmt.Errorf("entry %d stateful: %w", i, err)
		}
		data = data[n:]

		entries[i] = parser.PrecomputedFreeze{
			EqClass:    eqClass,
			Disposable: disposable,
			Nullable:   nullable,
			Stateful:   stateful,
		}
	}

	fg.Version = version
	fg.RootID = rootID
	fg.Entries = entries
	return nil
}
