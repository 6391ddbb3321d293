package eval

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// LoadWeights decodes a flat little-endian weight dump in Weights field order.
func LoadWeights(r io.Reader) (*Weights, error) {
	var data, err = io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) != WeightsFileSize {
		return nil, fmt.Errorf("bad network size: %d bytes, want %d", len(data), WeightsFileSize)
	}

	var w = &Weights{}
	var offset = 0

	var readI16 = func() int16 {
		var v = int16(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2
		return v
	}
	var readI32 = func() int32 {
		var v = int32(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4
		return v
	}

	for i := 0; i < FtSize; i++ {
		for j := 0; j < L1Size; j++ {
			w.FtWeights[i][j] = readI16()
		}
	}
	for j := 0; j < L1Size; j++ {
		w.FtBiases[j] = readI16()
	}
	for i := 0; i < 2*L1Size; i++ {
		for j := 0; j < L2Size; j++ {
			w.L1Weights[i][j] = int8(data[offset])
			offset++
		}
	}
	for j := 0; j < L2Size; j++ {
		w.L1Biases[j] = readI32()
	}
	for i := 0; i < 2*L2Size; i++ {
		for j := 0; j < L3Size; j++ {
			w.L2Weights[i][j] = readI32()
		}
	}
	for j := 0; j < L3Size; j++ {
		w.L2Biases[j] = readI32()
	}
	for j := 0; j < L3Size; j++ {
		w.L3Weights[j] = readI32()
	}
	w.L3Bias = readI32()

	return w, nil
}

func LoadWeightsFile(path string) (*Weights, error) {
	var f, err = os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadWeights(f)
}
