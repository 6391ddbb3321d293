//go:build !embednet

package eval

import "errors"

var errNoEmbeddedWeights = errors.New("engine built without an embedded network")

func loadEmbedWeights() (*Weights, error) {
	return nil, errNoEmbeddedWeights
}
