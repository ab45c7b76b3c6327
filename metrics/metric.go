// Package metrics は学習中の評価と早期停止で使う評価指標を提供します。
//
// すべての指標は (正解, 予測, 重み) のスライスを受け取り、重みが nil の場合は
// 均等重みとして扱います。分類指標の予測値は確率（変換後の値）です。
package metrics

import (
	"sort"
	"strings"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Func は評価指標の計算関数
type Func func(yTrue, yPred, weights []float64) (float64, error)

// Metric は名前付きの評価指標
type Metric struct {
	Name           string
	Eval           Func
	HigherIsBetter bool
}

// Better は a が b より良いスコアかどうかを判定する。同値は改善とみなさない。
func (m Metric) Better(a, b float64) bool {
	if m.HigherIsBetter {
		return a > b
	}
	return a < b
}

var registry = map[string]Metric{
	"rmse":    {Name: "rmse", Eval: RMSE},
	"mse":     {Name: "mse", Eval: MSE},
	"mae":     {Name: "mae", Eval: MAE},
	"logloss": {Name: "logloss", Eval: LogLoss},
	"error":   {Name: "error", Eval: ErrorRate},
	"auc":     {Name: "auc", Eval: AUC, HigherIsBetter: true},
}

// Get は名前から評価指標を取得する
func Get(name string) (Metric, error) {
	m, ok := registry[name]
	if !ok {
		return Metric{}, errors.NewConfigError("eval_metric", "unknown metric, expected one of "+strings.Join(Names(), ", "), name)
	}
	return m, nil
}

// Names は登録済みの評価指標名をソートして返す
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
