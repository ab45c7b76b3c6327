package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// logLossEps は log(0) を避けるための確率のクリップ幅
const logLossEps = 1e-15

// LogLoss は二値分類の重み付き対数損失を計算する。
// yPred は陽性クラスの確率（シグモイド変換後の値）。
func LogLoss(yTrue, yPred, weights []float64) (float64, error) {
	if err := checkInputs("LogLoss", yTrue, yPred, weights); err != nil {
		return 0, err
	}

	losses := make([]float64, len(yTrue))
	for i, y := range yTrue {
		p := errors.ClipValue(yPred[i], logLossEps, 1-logLossEps)
		losses[i] = -(y*errors.StabilizeLog(p) + (1-y)*errors.StabilizeLog(1-p))
	}
	return stat.Mean(losses, weights), nil
}

// ErrorRate は閾値0.5で二値化したときの重み付き誤分類率を計算する
func ErrorRate(yTrue, yPred, weights []float64) (float64, error) {
	if err := checkInputs("ErrorRate", yTrue, yPred, weights); err != nil {
		return 0, err
	}

	wrong := make([]float64, len(yTrue))
	for i, y := range yTrue {
		predicted := 0.0
		if yPred[i] > 0.5 {
			predicted = 1
		}
		if (y > 0.5) != (predicted > 0.5) {
			wrong[i] = 1
		}
	}
	return stat.Mean(wrong, weights), nil
}

// AUC はROC曲線下面積を計算する。同じスコアの行は平均順位で扱う。
func AUC(yTrue, yPred, weights []float64) (float64, error) {
	if err := checkInputs("AUC", yTrue, yPred, weights); err != nil {
		return 0, err
	}

	n := len(yTrue)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return yPred[idx[a]] < yPred[idx[b]] })

	weight := func(i int) float64 {
		if weights == nil {
			return 1
		}
		return weights[i]
	}

	// 重み付きMann-Whitney統計量: 同順位グループごとに負例の累積重みを数える
	var posTotal, negTotal, negBelow, area float64
	for start := 0; start < n; {
		end := start
		var pos, neg float64
		for end < n && yPred[idx[end]] == yPred[idx[start]] {
			i := idx[end]
			if yTrue[i] > 0.5 {
				pos += weight(i)
			} else {
				neg += weight(i)
			}
			end++
		}
		area += pos * (negBelow + neg/2)
		negBelow += neg
		posTotal += pos
		negTotal += neg
		start = end
	}

	if posTotal == 0 || negTotal == 0 {
		return 0, errors.NewValueError("AUC", "both classes must be present")
	}
	return area / (posTotal * negTotal), nil
}
