package sjis

// The engine stores some strings with common full-width characters
// swapped for half-width ones that take a single Shift-JIS byte. The
// two tables below are a one-to-one pairing: fixupEncoded[i] is the
// on-disk form of fixupDecoded[i].
const (
	fixupEncoded = "｢｣ｧｨｩｪｫｬｭｮｱｲｳｴｵｶｷｸｹｺｻｼｽｾｿﾀﾁﾂﾃﾄﾅﾆﾇﾈﾉﾊﾋﾌﾍﾎﾏﾐﾑﾒﾓﾔﾕﾖﾗﾘﾙﾚﾛﾜｦﾝｰｯ､ﾟﾞ･?｡"
	fixupDecoded = "「」ぁぃぅぇぉゃゅょあいうえおかきくけこさしすせそたちつてとなにぬねのはひふへほまみむめもやゆよらりるれろわをんーっ、？！…　。"
)

var (
	fixupDecodeTable = buildFixupTable(fixupEncoded, fixupDecoded)
	fixupEncodeTable = buildFixupTable(fixupDecoded, fixupEncoded)
)

func buildFixupTable(from, to string) map[rune]rune {
	fromRunes := []rune(from)
	toRunes := []rune(to)
	table := make(map[rune]rune, len(fromRunes))
	for i, r := range fromRunes {
		table[r] = toRunes[i]
	}
	return table
}

// EncodeFixup replaces characters with their shorter on-disk forms.
func EncodeFixup(s string) string {
	return mapRunes(s, fixupEncodeTable)
}

// DecodeFixup restores the display forms of fixed-up characters.
func DecodeFixup(s string) string {
	return mapRunes(s, fixupDecodeTable)
}

func mapRunes(s string, table map[rune]rune) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if mapped, ok := table[r]; ok {
			r = mapped
		}
		out = append(out, r)
	}
	return string(out)
}
