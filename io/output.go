package io

import (
	"bufio"
	"io"
	"strconv"

	"github.com/phil-mansfield/bsfield/geom"
	"github.com/phil-mansfield/bsfield/grid"
)

// FieldHeader is the comment line at the top of every field file.
const FieldHeader = "#x\ty\tz\tBx\tBx_err\tBy\tBy_err\tBz\tBz_err\t|B|"

// FieldWriter writes samples as tab-separated text, one sample per line,
// with a blank line between x-slices. It implements grid.SampleWriter.
type FieldWriter struct {
	w       *bufio.Writer
	buf     []byte
	inSlice bool
	gap     bool
}

var _ grid.SampleWriter = &FieldWriter{}

// NewFieldWriter writes the header line to w and returns a FieldWriter. Flush
// must be called once all samples have been written.
func NewFieldWriter(w io.Writer) (*FieldWriter, error) {
	fw := &FieldWriter{w: bufio.NewWriter(w), buf: make([]byte, 0, 256)}
	if _, err := fw.w.WriteString(FieldHeader + "\n"); err != nil {
		return nil, err
	}
	return fw, nil
}

func appendFloat(buf []byte, x float64) []byte {
	return strconv.AppendFloat(buf, x, 'g', -1, 64)
}

func (fw *FieldWriter) WriteSample(s *grid.Sample) error {
	buf := fw.buf[:0]
	if fw.gap {
		buf = append(buf, '\n')
		fw.gap = false
	}

	for i := 0; i < 3; i++ {
		buf = appendFloat(buf, s.Point[i])
		buf = append(buf, '\t')
	}
	for i := 0; i < 3; i++ {
		buf = appendFloat(buf, s.Field[i])
		buf = append(buf, '\t')
		buf = appendFloat(buf, s.Error[i])
		buf = append(buf, '\t')
	}
	buf = appendFloat(buf, s.Magnitude)
	buf = append(buf, '\n')

	fw.buf = buf
	fw.inSlice = true
	_, err := fw.w.Write(buf)
	return err
}

// EndSlice marks the end of an x-slice. The separating blank line is only
// written once the next sample arrives, so files never end with one.
func (fw *FieldWriter) EndSlice() error {
	if fw.inSlice {
		fw.gap = true
		fw.inSlice = false
	}
	return nil
}

// Flush writes any buffered data to the underlying io.Writer.
func (fw *FieldWriter) Flush() error { return fw.w.Flush() }

// WriteCurve writes one tab-separated x, y, z line per point.
func WriteCurve(w io.Writer, pts []geom.Vec) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64)
	for i := range pts {
		buf = buf[:0]
		for j := 0; j < 3; j++ {
			if j > 0 {
				buf = append(buf, '\t')
			}
			buf = appendFloat(buf, pts[i][j])
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}
