package graphics

import "image"

// ImageTexture is a CPU-side RGBA texture. It implements capture.Texture.
type ImageTexture struct {
	img *image.RGBA
}

// NewImageTexture allocates a w x h texture.
func NewImageTexture(w, h int) *ImageTexture {
	return &ImageTexture{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// WrapImage uses img as the texture storage without copying.
func WrapImage(img *image.RGBA) *ImageTexture {
	return &ImageTexture{img: img}
}

func (t *ImageTexture) Width() uint32 {
	if t == nil || t.img == nil {
		return 0
	}
	return uint32(t.img.Bounds().Dx())
}

func (t *ImageTexture) Height() uint32 {
	if t == nil || t.img == nil {
		return 0
	}
	return uint32(t.img.Bounds().Dy())
}

// Image returns the backing image.
func (t *ImageTexture) Image() *image.RGBA { return t.img }

// Ensure resizes the texture to w x h, reallocating only on a size change.
func (t *ImageTexture) Ensure(w, h int) *image.RGBA {
	if t.img == nil || t.img.Bounds().Dx() != w || t.img.Bounds().Dy() != h {
		t.img = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return t.img
}

// CopyBGRA converts rows of BGRA pixels with the given pitch into dst.
// Alpha is forced opaque; desktop surfaces carry undefined alpha.
func CopyBGRA(dst *image.RGBA, src []byte, rowPitch int) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	rowBytes := w * 4
	for y := 0; y < h; y++ {
		off := y * rowPitch
		if off+rowBytes > len(src) {
			return
		}
		in := src[off : off+rowBytes]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+rowBytes]
		for i := 0; i < rowBytes; i += 4 {
			out[i] = in[i+2]
			out[i+1] = in[i+1]
			out[i+2] = in[i]
			out[i+3] = 0xff
		}
	}
}
