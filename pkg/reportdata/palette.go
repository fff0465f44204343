package reportdata

// DefaultPalette is the chart palette. Colors are assigned by index with wraparound.
var DefaultPalette = []string{
	"#4CAF50",
	"#2196F3",
	"#FFC107",
	"#9C27B0",
	"#FF5722",
	"#607D8B",
	"#E91E63",
}

// PaletteColor returns palette[index % len(palette)]. An empty palette falls back to
// DefaultPalette.
func PaletteColor(palette []string, index int) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	if index < 0 {
		index = -index
	}
	return palette[index%len(palette)]
}
