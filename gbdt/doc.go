// Package gbdt implements histogram-based gradient boosted decision trees.
//
// Training runs in rounds. Each round computes per-row gradient pairs from
// the current margins, builds per-feature histograms over quantile bins,
// grows one tree with the best-gain splits, and appends it to an Ensemble.
// Rows whose value is missing follow a default direction learned per split.
//
// Basic usage:
//
//	params := gbdt.DefaultParams()
//	params.Loss = gbdt.Logistic
//	params.EarlyStoppingRounds = 10
//
//	ens, err := gbdt.Train(ctx, params, train, gbdt.EvalSet{Name: "valid", Data: valid})
//	if err != nil {
//	    return err
//	}
//	probs, err := gbdt.NewPredictor(gbdt.WithTransform()).Predict(ens, test)
//
// Work inside a round is split across row ranges and features; rounds run
// one after another. Results are reproducible for a fixed worker count and
// row order.
package gbdt
