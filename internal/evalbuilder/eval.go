package evalbuilder

import (
	"fmt"
	"log"

	material "github.com/mzaitsev/tokin/pkg/eval/material"
	nnue "github.com/mzaitsev/tokin/pkg/eval/nnue"
)

// Get resolves an evaluator constructor by name. The empty name means nnue
// when a network can be loaded, with the classical evaluator as fallback.
func Get(name string, logger *log.Logger, evalFile string) func() interface{} {
	switch name {
	case "material":
		return func() interface{} {
			return material.NewEvaluationService()
		}
	case "nnue":
		return func() interface{} {
			var service, err = nnue.NewDefaultEvaluationService(logger, evalFile)
			if err != nil {
				panic(fmt.Errorf("load nnue weights: %w", err))
			}
			return service
		}
	case "":
		return func() interface{} {
			var service, err = nnue.NewDefaultEvaluationService(logger, evalFile)
			if err != nil {
				logger.Println("nnue weights unavailable, using material evaluation:", err)
				return material.NewEvaluationService()
			}
			return service
		}
	}
	panic(fmt.Errorf("bad eval %v", name))
}
