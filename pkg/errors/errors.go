// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 学習・推論エンジンの各境界で返される構造化エラーと、処理を止めない警告を定義します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("goboost-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ParameterWarning は設定値の組み合わせが無視される、または効果を持たない場合の警告です。
// 例えば early_stopping_rounds が指定されているのに評価データが渡されなかった場合など。
type ParameterWarning struct {
	Param   string
	Message string
}

func (w *ParameterWarning) Error() string {
	return fmt.Sprintf("parameter '%s': %s", w.Param, w.Message)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ParameterWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("param", w.Param).
		Str("message", w.Message).
		Str("type", "ParameterWarning")
}

// NewParameterWarning は新しいParameterWarningを作成します。
func NewParameterWarning(param, message string) *ParameterWarning {
	return &ParameterWarning{Param: param, Message: message}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// ShapeError は行列の構築、ラベル・重みの長さが行数と一致しない場合のエラーです。
type ShapeError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
	Reason   string
}

func (e *ShapeError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *ShapeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("goboost: %s: shape error on axis %d (%s): %s", e.Op, e.Axis, e.axisName(), e.Reason)
	}
	return fmt.Sprintf("goboost: %s: shape mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ShapeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("reason", e.Reason).
		Str("type", "ShapeError")
}

// NewShapeError は長さの不一致を表すShapeErrorを作成し、スタックトレースを付与します。
func NewShapeError(op string, expected, got, axis int) error {
	err := &ShapeError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// NewShapeErrorf は理由付きのShapeErrorを作成します。範囲外のインデックスなど、
// 単純な長さ比較で表せない形状エラーに使います。
func NewShapeErrorf(op string, axis int, format string, args ...interface{}) error {
	err := &ShapeError{Op: op, Expected: -1, Got: -1, Axis: axis, Reason: fmt.Sprintf(format, args...)}
	return errors.WithStack(err)
}

// ConfigError はハイパーパラメータの検証に失敗した場合のエラーです。
// Field には問題のある設定項目名が入ります。
type ConfigError struct {
	Field  string
	Reason string
	Value  interface{}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("goboost: invalid configuration for '%s': %s (got: %v)", e.Field, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("field", e.Field).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ConfigError")
}

// NewConfigError は新しいConfigErrorを作成し、スタックトレースを付与します。
func NewConfigError(field, reason string, value interface{}) error {
	err := &ConfigError{Field: field, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// TreeGrowthError は木の成長中に内部不変条件が破れた場合のエラーです。
// 例えばルートノードの有効行集合が空の場合など。
type TreeGrowthError struct {
	Round  int
	Node   int
	Reason string
}

func (e *TreeGrowthError) Error() string {
	return fmt.Sprintf("goboost: tree growth failed at round %d, node %d: %s", e.Round, e.Node, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *TreeGrowthError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("round", e.Round).
		Int("node", e.Node).
		Str("reason", e.Reason).
		Str("type", "TreeGrowthError")
}

// NewTreeGrowthError は新しいTreeGrowthErrorを作成し、スタックトレースを付与します。
func NewTreeGrowthError(round, node int, reason string) error {
	err := &TreeGrowthError{Round: round, Node: node, Reason: reason}
	return errors.WithStack(err)
}

// PredictionError はアンサンブルが参照する特徴量が、行列にもモデルの宣言特徴量数にも
// 存在しない場合のエラーです。
type PredictionError struct {
	Tree        int
	Feature     int
	NumFeatures int
	MatrixCols  int
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("goboost: tree %d references feature %d, but the model declares %d features and the matrix has %d columns",
		e.Tree, e.Feature, e.NumFeatures, e.MatrixCols)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PredictionError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("tree", e.Tree).
		Int("feature", e.Feature).
		Int("num_features", e.NumFeatures).
		Int("matrix_cols", e.MatrixCols).
		Str("type", "PredictionError")
}

// NewPredictionError は新しいPredictionErrorを作成し、スタックトレースを付与します。
func NewPredictionError(tree, feature, numFeatures, matrixCols int) error {
	err := &PredictionError{Tree: tree, Feature: feature, NumFeatures: numFeatures, MatrixCols: matrixCols}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
// 例えば、負のサンプル重みを渡した場合など。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("goboost: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN、Inf などを検出します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "gradient", "eval_metric"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生したラウンド番号
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("goboost: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrNoLabels はラベルが必要な処理にラベルのない行列が渡された場合のエラーです。
	ErrNoLabels = New("matrix has no labels")
)
