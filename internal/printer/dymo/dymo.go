// Package dymo encodes canvases as DYMO raster print jobs.
//
// A job sets the bytes per column (ESC D) and the label length in columns (ESC L), sends each column as a SYN (0x16)
// followed by its packed pixels, and ends with a form feed (ESC E). Column bytes are packed most significant bit
// first starting from the top row; canvases shorter than the print head are padded at the bottom.
package dymo

import (
	"bytes"
	"fmt"

	"github.com/pgavlin/letratag/internal/canvas"
)

const (
	esc = 0x1b
	syn = 0x16
)

// BytesPerColumn is the packed size of one print-head column.
const BytesPerColumn = (canvas.MaxHeight + 7) / 8

// MaxColumns is the longest label a single job can describe.
const MaxColumns = 0xffff

// Encode returns the print job for c.
func Encode(c *canvas.Canvas) ([]byte, error) {
	if c.Width() > MaxColumns {
		return nil, fmt.Errorf("dymo: label is %d columns long, the limit is %d", c.Width(), MaxColumns)
	}

	var buf bytes.Buffer
	buf.Grow(7 + c.Width()*(1+BytesPerColumn) + 2)

	buf.Write([]byte{esc, 'D', BytesPerColumn})
	buf.Write([]byte{esc, 'L', byte(c.Width() >> 8), byte(c.Width())})

	col := make([]byte, BytesPerColumn)
	for x := 0; x < c.Width(); x++ {
		for i := range col {
			col[i] = 0
		}
		copy(col, c.Column(x))

		buf.WriteByte(syn)
		buf.Write(col)
	}

	buf.Write([]byte{esc, 'E'})
	return buf.Bytes(), nil
}

// Chunks splits a job into pieces of at most size bytes.
func Chunks(job []byte, size int) [][]byte {
	if size <= 0 {
		return [][]byte{job}
	}
	chunks := make([][]byte, 0, (len(job)+size-1)/size)
	for len(job) > size {
		chunks = append(chunks, job[:size])
		job = job[size:]
	}
	if len(job) > 0 {
		chunks = append(chunks, job)
	}
	return chunks
}
