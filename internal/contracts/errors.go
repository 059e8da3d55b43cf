package contracts

import "errors"

// ⭐ SSOT: 공통 sentinel 에러
var (
	// ErrInvalidConfig: 사이클 단위 치명적 설정 오류
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInsufficientHistory: 계산에 필요한 이력 부족 (종목 단위 제외)
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrNoPrice: 실시간 가격 없음 (종목 단위 제외)
	ErrNoPrice = errors.New("no price available")

	// ErrAborted: 사용자 중단 또는 컨텍스트 취소
	ErrAborted = errors.New("aborted")
)
