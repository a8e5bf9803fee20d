package iface

import "fmt"

// Tensor is a row-major 2D detection output: one row per candidate,
// columns [cx, cy, w, h, s0 ... sn] normalized to the frame size.
type Tensor struct {
	Rows int
	Cols int
	Data []float32
}

func NewTensor(rows, cols int, data []float32) (Tensor, error) {
	if rows < 0 || cols < 0 {
		return Tensor{}, fmt.Errorf("invalid tensor shape %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return Tensor{}, fmt.Errorf("tensor shape %dx%d does not match %d values", rows, cols, len(data))
	}
	return Tensor{Rows: rows, Cols: cols, Data: data}, nil
}

// TensorFromRows builds a tensor out of equally sized rows.
func TensorFromRows(rows [][]float32) (Tensor, error) {
	if len(rows) == 0 {
		return Tensor{}, nil
	}
	cols := len(rows[0])
	data := make([]float32, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return Tensor{}, fmt.Errorf("row %d has %d columns, want %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return Tensor{Rows: len(rows), Cols: cols, Data: data}, nil
}

func (t Tensor) Row(i int) []float32 {
	return t.Data[i*t.Cols : (i+1)*t.Cols]
}
