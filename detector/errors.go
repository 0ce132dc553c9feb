package detector

import "errors"

var (
	// ErrThresholdMissing 规则所需阈值未配置；该次评估跳过对应规则。
	ErrThresholdMissing = errors.New("threshold not configured")
	// ErrDegenerateBase 前价为零，变动比例无法计算。
	ErrDegenerateBase = errors.New("previous price is zero")
)
