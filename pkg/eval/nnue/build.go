package eval

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var once sync.Once
var defaultWeights *Weights
var defaultErr error

// NewDefaultEvaluationService loads the network once: embedded weights first
// (embednet builds), then the given path, then the binary's directory.
func NewDefaultEvaluationService(logger *log.Logger, path string) (*EvaluationService, error) {
	once.Do(func() {
		var w, err = loadEmbedWeights()
		if err == nil {
			defaultWeights = w
			logger.Println("loaded embedded nnue weights")
			return
		}
		if path != "" {
			w, err = LoadWeightsFile(path)
			if err == nil {
				defaultWeights = w
				logger.Println("loaded nnue weights", "path", path)
				return
			}
			defaultErr = err
			return
		}
		var fallback = mapPath("./tokin.nn")
		w, err = LoadWeightsFile(fallback)
		if err == nil {
			defaultWeights = w
			logger.Println("loaded nnue weights", "path", fallback)
			return
		}
		defaultErr = err
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	return NewEvaluationService(defaultWeights), nil
}

func mapPath(path string) string {
	if strings.HasPrefix(path, "./") {
		var exePath, err = os.Executable()
		if err != nil {
			return path
		}
		return filepath.Join(filepath.Dir(exePath), strings.TrimPrefix(path, "./"))
	}
	return path
}
