package palette

import "image/color"

// LCZ returns the standard Local Climate Zone palette (Stewart & Oke
// classes as colored by the WUDAPT/QGIS style). Codes are the raster
// values 1-17; built types are LCZ 1-10, land cover types LCZ A-G.
// Each call returns a new palette.
func LCZ() *Palette {
	entries := []Entry{
		{Code: "1", Name: "LCZ 1: Compact high-rise", Color: color.RGBA{140, 0, 0, 255}},
		{Code: "2", Name: "LCZ 2: Compact mid-rise", Color: color.RGBA{209, 0, 0, 255}},
		{Code: "3", Name: "LCZ 3: Compact low-rise", Color: color.RGBA{255, 0, 0, 255}},
		{Code: "4", Name: "LCZ 4: Open high-rise", Color: color.RGBA{191, 77, 0, 255}},
		{Code: "5", Name: "LCZ 5: Open mid-rise", Color: color.RGBA{255, 102, 0, 255}},
		{Code: "6", Name: "LCZ 6: Open low-rise", Color: color.RGBA{255, 153, 85, 255}},
		{Code: "7", Name: "LCZ 7: Lightweight low-rise", Color: color.RGBA{250, 238, 5, 255}},
		{Code: "8", Name: "LCZ 8: Large low-rise", Color: color.RGBA{188, 188, 188, 255}},
		{Code: "9", Name: "LCZ 9: Sparsely built", Color: color.RGBA{255, 204, 170, 255}},
		{Code: "10", Name: "LCZ 10: Heavy industry", Color: color.RGBA{85, 85, 85, 255}},
		{Code: "11", Name: "LCZ A: Dense trees", Color: color.RGBA{0, 106, 0, 255}},
		{Code: "12", Name: "LCZ B: Scattered trees", Color: color.RGBA{0, 170, 0, 255}},
		{Code: "13", Name: "LCZ C: Bush, scrub", Color: color.RGBA{100, 133, 37, 255}},
		{Code: "14", Name: "LCZ D: Low plants", Color: color.RGBA{185, 219, 121, 255}},
		{Code: "15", Name: "LCZ E: Bare rock or paved", Color: color.RGBA{0, 0, 0, 255}},
		{Code: "16", Name: "LCZ F: Bare soil or sand", Color: color.RGBA{251, 247, 174, 255}},
		{Code: "17", Name: "LCZ G: Water", Color: color.RGBA{106, 106, 255, 255}},
	}
	p, err := New("builtin:lcz", entries)
	if err != nil {
		panic(err)
	}
	return p
}
