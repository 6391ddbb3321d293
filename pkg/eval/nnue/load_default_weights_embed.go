//go:build embednet

package eval

import (
	"bytes"
	_ "embed"
)

//go:embed tokin.nn
var embedWeights []byte

func loadEmbedWeights() (*Weights, error) {
	return LoadWeights(bytes.NewReader(embedWeights))
}
