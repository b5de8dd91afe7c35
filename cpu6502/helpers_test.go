package cpu6502

import "github.com/sidforge/laxity2sf2/memimage"

func newTestImage() *memimage.Image {
	return memimage.New()
}
