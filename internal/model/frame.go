package model

// NewFrame returns n black pixels.
func NewFrame(n int) []ColorVal {
	f := make([]ColorVal, n)
	Fill(f, Black)
	return f
}

func Fill(frame []ColorVal, c ColorVal) {
	for i := range frame {
		frame[i] = c
	}
}

// PackRGB writes 3 bytes per pixel (R,G,B) into dst, growing it when needed.
func PackRGB(dst []byte, frame []ColorVal) []byte {
	n := len(frame) * 3
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, c := range frame {
		dst[i*3+0] = c.GetR()
		dst[i*3+1] = c.GetG()
		dst[i*3+2] = c.GetB()
	}
	return dst
}

// IsDark reports whether every pixel has zero color channels.
func IsDark(frame []ColorVal) bool {
	for _, c := range frame {
		if c.GetR() != 0 || c.GetG() != 0 || c.GetB() != 0 {
			return false
		}
	}
	return true
}
