// Package goboost is a gradient boosted decision tree engine for Go, built for
// backend services that train and serve tree ensembles in-process.
//
// goboost trains additive ensembles of regression trees on second-order
// gradient statistics, with histogram-based split finding, learned default
// directions for missing values, and early stopping on held-out data.
//
// # Features
//
// - Histogram GBDT: quantile bins, depth-wise or best-first growth
// - Missing values: NaN in dense input, omitted entries in sparse input
// - Objectives: squared error regression and binary logistic
// - Parallel rounds: gradients, histograms and prediction split over workers
// - Cancellation: training checks a context.Context between rounds
// - Persistence: gob and JSON model codecs with exact round trips
//
// # Installation
//
//	go get github.com/YuminosukeSato/goboost
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/goboost/core/dataset"
//	    "github.com/YuminosukeSato/goboost/gbdt"
//	)
//
//	func main() {
//	    // 5 rows, 3 features, row-major
//	    train, err := dataset.NewDense([]float64{
//	        1, 1, 1,
//	        1, 1, 0,
//	        1, 1, 1,
//	        0, 0, 0,
//	        1, 1, 1,
//	    }, 5)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := train.SetLabels([]float64{1, 1, 1, 0, 1}); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    params := gbdt.DefaultParams()
//	    params.MaxDepth = 2
//	    params.NumRounds = 1
//
//	    ens, err := gbdt.Train(context.Background(), params, train)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    test, _ := dataset.NewDense([]float64{0.7, 0.9, 0.6}, 1)
//	    preds, err := gbdt.Predict(ens, test)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(preds)
//	}
//
// # Packages
//
//   - core/dataset: dense and sparse feature matrices with labels and weights
//   - gbdt: objectives, binning, histograms, split finding, tree growth,
//     boosting, prediction and text dumps
//   - metrics: evaluation metrics used for monitoring and early stopping
//   - config: YAML/JSON parameter documents
//   - persist: model save and load
//   - viz: Graphviz export of trees and learning-curve plots
//   - pkg/errors, pkg/log: error kinds and structured logging
//
// # Error Handling
//
// Errors carry a kind that can be tested with errors.As:
//
//	ens, err := gbdt.Train(ctx, params, train)
//	var cfgErr *errors.ConfigError
//	if errors.As(err, &cfgErr) {
//	    fmt.Println("bad parameter:", cfgErr.Field)
//	}
//
// # Logging
//
// Training progress is logged as JSON through zerolog. Install another
// provider with log.SetProvider, or raise the level with log.SetLevel.
package goboost
