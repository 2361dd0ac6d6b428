package ines

import (
	"bytes"
	"log"
	"testing"

	"github.com/bodgit/nestile/bank"
	"github.com/bodgit/nestile/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(b ...byte) []byte {
	h := make([]byte, HeaderSize)
	copy(h, magic)
	copy(h[4:], b)
	return h
}

// image builds a container with the given header followed by a trainer if
// flagged, PRG filled with 0xea and CHR filled with a counting pattern
func image(t *testing.T, h []byte, extra int) []byte {
	t.Helper()
	hdr, err := ParseHeader(h)
	require.NoError(t, err)

	b := append([]byte{}, h...)
	if hdr.Trainer() {
		b = append(b, bytes.Repeat([]byte{0x55}, TrainerSize)...)
	}
	b = append(b, bytes.Repeat([]byte{0xea}, hdr.PRGSize())...)
	for i := 0; i < hdr.CHRSize()+extra; i++ {
		b = append(b, byte(i/tile.Size))
	}
	return b
}

func TestParseHeaderBadMagic(t *testing.T) {
	tests := [][]byte{
		nil,
		[]byte("NES"),
		[]byte("ROM\x1a\x01\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"),
		[]byte("nes\x1a\x01\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"),
		[]byte("NES\x00"),
		append([]byte("NE\x00\x1a"), bytes.Repeat([]byte{0xff}, 1024)...),
	}
	for _, b := range tests {
		_, err := ParseHeader(b)
		assert.ErrorIs(t, err, ErrBadMagic, "%q", b)
	}
}

func TestParseHeaderShort(t *testing.T) {
	_, err := ParseHeader([]byte("NES\x1a\x01\x01"))
	assert.ErrorIs(t, err, ErrShortHeader)
}

func TestFieldAccessors(t *testing.T) {
	assert.Equal(t, uint16(0x0a), mapperLow(0xa5))
	assert.Equal(t, uint16(0xb0), mapperMid(0xbf))
	assert.Equal(t, uint16(0x300), mapperHigh(0xf3))
	assert.Equal(t, uint8(0xf), submapper(0xf3))
	assert.True(t, isExtended(0x08))
	assert.True(t, isExtended(0xfb))
	assert.False(t, isExtended(0x04))
	assert.False(t, isExtended(0x0c))
	assert.Equal(t, Horizontal, mirroring(0x00))
	assert.Equal(t, Vertical, mirroring(0x01))
	assert.Equal(t, FourScreen, mirroring(0x08))
	assert.Equal(t, FourScreen, mirroring(0x09))
	assert.Equal(t, 1, exponentSize(0x00))
	assert.Equal(t, 3<<4, exponentSize(0x11))
	assert.Equal(t, 7<<10, exponentSize(0x2b))
}

func TestHeaderFields(t *testing.T) {
	tests := []struct {
		name       string
		header     []byte
		format     Format
		mapper     uint16
		submapper  uint8
		mirroring  Mirroring
		battery    bool
		trainer    bool
		console    Console
		prg, chr   int
		prgU, chrU int
	}{
		{
			name:   "minimal",
			header: header(2, 1),
			format: Legacy, prg: 2 * PRGUnit, chr: CHRUnit, prgU: 2, chrU: 1,
		},
		{
			name:   "mapper nibbles",
			header: header(1, 1, 0x40, 0x00),
			format: Legacy, mapper: 4, prg: PRGUnit, chr: CHRUnit, prgU: 1, chrU: 1,
		},
		{
			name:   "mapper high nibble",
			header: header(8, 16, 0x13, 0x40),
			format: Legacy, mapper: 0x41, mirroring: Vertical, battery: true,
			prg: 8 * PRGUnit, chr: 16 * CHRUnit, prgU: 8, chrU: 16,
		},
		{
			name:   "trainer and four screen",
			header: header(1, 0, 0x0c),
			format: Legacy, mirroring: FourScreen, trainer: true, prg: PRGUnit, prgU: 1,
		},
		{
			name:   "vs system",
			header: header(1, 1, 0x00, 0x01),
			format: Legacy, console: VsSystem, prg: PRGUnit, chr: CHRUnit, prgU: 1, chrU: 1,
		},
		{
			name:   "garbage tail",
			header: header(1, 1, 0x20, 0x70, 'D', 'u', 'd', 'e', '!', 0, 0, 0),
			format: Legacy, mapper: 0x72, prg: PRGUnit, chr: CHRUnit, prgU: 1, chrU: 1,
		},
		{
			name:   "garbage tail over four bytes",
			header: header(1, 1, 0x20, 0x70, 0, 0, 0, 0, 'D', 'i', 's', 'k'),
			format: Legacy, mapper: 0x72, prg: PRGUnit, chr: CHRUnit, prgU: 1, chrU: 1,
		},
		{
			name:   "extended mapper",
			header: header(2, 2, 0x51, 0x48, 0x21, 0x00, 0, 0, 0, 0, 0, 'x'),
			format: Extended, mapper: 0x145, submapper: 2, mirroring: Vertical,
			prg: 2 * PRGUnit, chr: 2 * CHRUnit, prgU: 2, chrU: 2,
		},
		{
			name:   "extended size msb",
			header: header(0x00, 0x01, 0x00, 0x08, 0x00, 0x21),
			format: Extended, prg: 0x100 * PRGUnit, chr: 0x201 * CHRUnit, prgU: 0x100, chrU: 0x201,
		},
		{
			name:   "extended exponent",
			header: header(0x2b, 0x09, 0x00, 0x08, 0x00, 0xff),
			format: Extended, prg: 7 << 10, chr: 3 << 2, prgU: -1, chrU: -1,
		},
		{
			name:   "extended console",
			header: header(1, 0, 0x00, 0x0b),
			format: Extended, console: ExtendedConsole, prg: PRGUnit, prgU: 1,
		},
	}

	for _, table := range tests {
		t.Run(table.name, func(t *testing.T) {
			h, err := ParseHeader(table.header)
			require.NoError(t, err)

			assert.Equal(t, table.format, h.Format())
			assert.Equal(t, table.mapper, h.Mapper())
			assert.Equal(t, table.submapper, h.Submapper())
			assert.Equal(t, table.mirroring, h.Mirroring())
			assert.Equal(t, table.battery, h.Battery())
			assert.Equal(t, table.trainer, h.Trainer())
			assert.Equal(t, table.console, h.Console())
			assert.Equal(t, table.prg, h.PRGSize())
			assert.Equal(t, table.chr, h.CHRSize())
			assert.Equal(t, table.prgU, h.PRGUnits())
			assert.Equal(t, table.chrU, h.CHRUnits())

			raw, err := h.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, table.header, raw)
		})
	}
}

func TestParseHeaderExponentTooLarge(t *testing.T) {
	_, err := ParseHeader(header(0xfc, 0x01, 0x00, 0x08, 0x00, 0x0f))
	assert.ErrorIs(t, err, ErrUnsupported)

	// The same bytes are a plain unit count in a legacy header
	h, err := ParseHeader(header(0xfc, 0x01, 0x00, 0x00, 0x00, 0x0f))
	require.NoError(t, err)
	assert.Equal(t, 0xfc*PRGUnit, h.PRGSize())
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   Segment
	}{
		{"fixed", header(2, 1), Segment{Offset: 16 + 2*PRGUnit, Length: CHRUnit, Storage: Fixed}},
		{"trainer", header(1, 2, 0x04), Segment{Offset: 16 + TrainerSize + PRGUnit, Length: 2 * CHRUnit, Storage: Fixed}},
		{"writable", header(2, 0), Segment{Offset: 16 + 2*PRGUnit, Length: 0, Storage: Writable}},
		{"extended writable", header(2, 0, 0x00, 0x08), Segment{Offset: 16 + 2*PRGUnit, Length: 0, Storage: Writable}},
	}

	for _, table := range tests {
		t.Run(table.name, func(t *testing.T) {
			h, err := ParseHeader(table.header)
			require.NoError(t, err)
			assert.Equal(t, table.want, Locate(h))
		})
	}
}

func TestMinimalImage(t *testing.T) {
	img := image(t, header(2, 1), 0)

	h, err := ParseHeader(img)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), h.Mapper())

	s := Locate(h)
	assert.Equal(t, Fixed, s.Storage)
	assert.Equal(t, 16+2*PRGUnit, s.Offset)
	assert.Equal(t, 8192, s.Length)

	banks, err := ListBanks(img, h)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, 8192, banks[0].Size())
	assert.True(t, banks[0].ReadOnly())
	assert.Equal(t, img[s.Offset:], banks[0].Bytes())
}

func TestListBanksCount(t *testing.T) {
	for _, units := range []byte{1, 2, 3, 5} {
		for _, size := range []int{1024, 4096, 8192, 16384, 3 * 1024, 16} {
			img := image(t, header(1, units), 0)
			h, err := ParseHeader(img)
			require.NoError(t, err)

			p, err := NewParser(size, nil)
			require.NoError(t, err)

			banks, err := p.ListBanks(img, h)
			require.NoError(t, err)
			assert.Len(t, banks, int(units)*CHRUnit/size, "units %d, size %d", units, size)

			for i, b := range banks {
				assert.Equal(t, size/tile.Size, b.Len())
				first, err := b.Get(0)
				require.NoError(t, err)
				want := tile.DecodeSlice(img[Locate(h).Offset+i*size:])
				assert.Equal(t, want, first)
			}
		}
	}
}

func TestListBanksTrailing(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewParser(3*1024, log.New(&buf, "", 0))
	require.NoError(t, err)

	img := image(t, header(1, 1), 0)
	h, err := ParseHeader(img)
	require.NoError(t, err)

	banks, err := p.ListBanks(img, h)
	require.NoError(t, err)
	assert.Len(t, banks, 2)
	assert.Contains(t, buf.String(), "Ignoring 2048 trailing bytes")

	info, err := p.Inspect(img)
	require.NoError(t, err)
	assert.Equal(t, 2048, info.TrailingBytes)
	assert.Equal(t, 2, info.BankCount)
}

func TestListBanksWritable(t *testing.T) {
	img := image(t, header(2, 0), 0)
	h, err := ParseHeader(img)
	require.NoError(t, err)

	banks, err := ListBanks(img, h)
	assert.ErrorIs(t, err, ErrNoGraphicsData)
	assert.Nil(t, banks)

	_, err = defaultParser.Bank(img, 0)
	assert.ErrorIs(t, err, ErrNoGraphicsData)

	info, err := Inspect(img)
	require.NoError(t, err)
	assert.Equal(t, Writable, info.CHRStorage)
	assert.Equal(t, 0, info.BankCount)
}

func TestListBanksTruncated(t *testing.T) {
	img := image(t, header(1, 2), 0)
	h, err := ParseHeader(img)
	require.NoError(t, err)

	_, err = ListBanks(img[:len(img)-1], h)
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Inspect(img[:HeaderSize+10])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestBank(t *testing.T) {
	img := image(t, header(1, 2, 0x04), 0)

	b, err := defaultParser.Bank(img, 1)
	require.NoError(t, err)
	h, err := ParseHeader(img)
	require.NoError(t, err)
	s := Locate(h)
	assert.Equal(t, img[s.Offset+CHRUnit:s.End()], b.Bytes())

	_, err = defaultParser.Bank(img, 2)
	assert.ErrorIs(t, err, bank.ErrIndexOutOfRange)
	_, err = defaultParser.Bank(img, -1)
	assert.ErrorIs(t, err, bank.ErrIndexOutOfRange)

	img[0] = 'M'
	_, err = defaultParser.Bank(img, 0)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestBanksAreViews(t *testing.T) {
	img := image(t, header(1, 1), 0)
	h, err := ParseHeader(img)
	require.NoError(t, err)

	banks, err := ListBanks(img, h)
	require.NoError(t, err)

	img[Locate(h).Offset] = 0xff
	got, err := banks[0].Get(0)
	require.NoError(t, err)
	assert.Equal(t, [8]uint8{1, 1, 1, 1, 1, 1, 1, 1}, got[0])

	assert.ErrorIs(t, banks[0].Set(0, tile.Tile{}), bank.ErrReadOnly)
}

func TestPRG(t *testing.T) {
	img := image(t, header(1, 1, 0x04), 0)
	h, err := ParseHeader(img)
	require.NoError(t, err)

	prg, err := PRG(img, h)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xea}, PRGUnit), prg)
}

func TestNewParserBankSize(t *testing.T) {
	for _, size := range []int{0, -16, 15, 8191} {
		_, err := NewParser(size, nil)
		assert.ErrorIs(t, err, ErrBankSize, "size %d", size)
	}
}

func TestInspect(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewParser(4096, log.New(&buf, "", 0))
	require.NoError(t, err)

	img := image(t, header(2, 2, 0x13, 0x10, 0, 0, 0, 0, 0, 0, 0, 1), 0)
	info, err := p.Inspect(img)
	require.NoError(t, err)

	assert.Equal(t, &Info{
		Format:     Legacy,
		Mapper:     0x11,
		Mirroring:  Vertical,
		Battery:    true,
		PRGSize:    2 * PRGUnit,
		CHRSize:    2 * CHRUnit,
		CHRStorage: Fixed,
		BankSize:   4096,
		BankCount:  4,
	}, info)
	assert.Contains(t, buf.String(), "mapper 17 may be wrong")
}

func TestStrings(t *testing.T) {
	h, err := ParseHeader(header(2, 1, 0x01))
	require.NoError(t, err)
	assert.Equal(t, "iNES, mapper 0, prg 32768, chr 8192, vertical", h.String())

	assert.Equal(t, "NES 2.0", Extended.String())
	assert.Equal(t, "four-screen", FourScreen.String())
	assert.Equal(t, "ram", Writable.String())
	assert.Equal(t, "PlayChoice-10", PlayChoice.String())
	assert.Equal(t, "Storage(9)", Storage(9).String())
}
