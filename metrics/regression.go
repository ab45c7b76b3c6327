package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// checkInputs は評価指標の共通入力検証を行う。
// weights が nil の場合はすべての行の重みを1として扱う。
func checkInputs(op string, yTrue, yPred, weights []float64) error {
	n := len(yTrue)
	if n == 0 {
		return errors.NewValueError(op, "empty input")
	}
	if len(yPred) != n {
		return errors.NewShapeError(op, n, len(yPred), 0)
	}
	if weights != nil {
		if len(weights) != n {
			return errors.NewShapeError(op, n, len(weights), 0)
		}
		if floats.Sum(weights) <= 0 {
			return errors.NewValueError(op, "sum of weights must be positive")
		}
	}
	return nil
}

// MSE は重み付き平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred, weights []float64) (float64, error) {
	if err := checkInputs("MSE", yTrue, yPred, weights); err != nil {
		return 0, err
	}

	// MSE = Σw(yTrue - yPred)² / Σw
	sq := make([]float64, len(yTrue))
	floats.SubTo(sq, yTrue, yPred)
	floats.Mul(sq, sq)
	return stat.Mean(sq, weights), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred, weights []float64) (float64, error) {
	mse, err := MSE(yTrue, yPred, weights)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は重み付き平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred, weights []float64) (float64, error) {
	if err := checkInputs("MAE", yTrue, yPred, weights); err != nil {
		return 0, err
	}

	abs := make([]float64, len(yTrue))
	for i := range yTrue {
		abs[i] = math.Abs(yTrue[i] - yPred[i])
	}
	return stat.Mean(abs, weights), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred, weights []float64) (float64, error) {
	if err := checkInputs("R2Score", yTrue, yPred, weights); err != nil {
		return 0, err
	}

	yMean := stat.Mean(yTrue, weights)

	// 全変動（TSS）と残差変動（RSS）
	var tss, rss float64
	for i := range yTrue {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		tss += w * (yTrue[i] - yMean) * (yTrue[i] - yMean)
		rss += w * (yTrue[i] - yPred[i]) * (yTrue[i] - yPred[i])
	}

	// すべてのyTrueが同じ値
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}

	return 1 - rss/tss, nil
}
