package pipeline

// LinearImage is the canonical internal representation: a height×width×3
// raster of linear-light samples in [0,1], RGB interleaved. All photometric
// reasoning in the pipeline operates on this type.
type LinearImage struct {
	Width  int
	Height int
	Pix    []float32 // len = 3*Width*Height
}

func NewLinearImage(w, h int) *LinearImage {
	return &LinearImage{Width: w, Height: h, Pix: make([]float32, 3*w*h)}
}

// At returns the sample for channel c (0=R, 1=G, 2=B) at (x, y).
func (li *LinearImage) At(x, y, c int) float32 {
	return li.Pix[(y*li.Width+x)*3+c]
}

func (li *LinearImage) Set(x, y, c int, v float32) {
	li.Pix[(y*li.Width+x)*3+c] = v
}

func (li *LinearImage) Clone() *LinearImage {
	out := NewLinearImage(li.Width, li.Height)
	copy(out.Pix, li.Pix)
	return out
}

const maskOn = 255

// Mask is a binary raster over the same grid as a LinearImage; 255 marks
// foreground pixels.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8 // len = Width*Height
}

func NewMask(w, h int) *Mask {
	return &Mask{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

func (m *Mask) Get(x, y int) bool { return m.Pix[y*m.Width+x] == maskOn }

func (m *Mask) SetOn(x, y int) { m.Pix[y*m.Width+x] = maskOn }

// Area counts foreground pixels.
func (m *Mask) Area() int {
	n := 0
	for _, v := range m.Pix {
		if v == maskOn {
			n++
		}
	}
	return n
}

func (m *Mask) Clone() *Mask {
	out := NewMask(m.Width, m.Height)
	copy(out.Pix, m.Pix)
	return out
}

// IsSubsetOf reports whether every foreground pixel of m is foreground in o.
func (m *Mask) IsSubsetOf(o *Mask) bool {
	if m.Width != o.Width || m.Height != o.Height {
		return false
	}
	for i, v := range m.Pix {
		if v == maskOn && o.Pix[i] != maskOn {
			return false
		}
	}
	return true
}
