package ppu

import "image/color"

// Palette is the fixed set of colors frames are rendered with: 4 palettes of
// 4 colors each. Color 0 of each palette is the shared backdrop. Colors are
// taken from the 2C02 master palette.
var Palette = [16]color.RGBA{
	// greys: $0F $00 $10 $30
	{0x00, 0x00, 0x00, 0xFF},
	{0x66, 0x66, 0x66, 0xFF},
	{0xAD, 0xAD, 0xAD, 0xFF},
	{0xFF, 0xFE, 0xFF, 0xFF},

	// reds: $0F $06 $16 $26
	{0x00, 0x00, 0x00, 0xFF},
	{0x6A, 0x0E, 0x00, 0xFF},
	{0xB5, 0x31, 0x20, 0xFF},
	{0xFF, 0x82, 0x70, 0xFF},

	// greens: $0F $09 $19 $29
	{0x00, 0x00, 0x00, 0xFF},
	{0x0D, 0x42, 0x00, 0xFF},
	{0x38, 0x87, 0x00, 0xFF},
	{0x88, 0xD8, 0x00, 0xFF},

	// blues: $0F $01 $11 $21
	{0x00, 0x00, 0x00, 0xFF},
	{0x00, 0x2A, 0x88, 0xFF},
	{0x15, 0x5F, 0xD9, 0xFF},
	{0x64, 0xB0, 0xFF, 0xFF},
}
