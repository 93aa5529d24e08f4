package service

import (
	"errors"
	"net/http"

	"github.com/padel-arena/padel-arena-backend/internal/padel"
)

// 응답에 그대로 노출되는 이유 코드
const (
	CodeInvalidInput            = "INVALID_INPUT"
	CodeInvalidFormat           = "INVALID_FORMAT"
	CodeInvalidPhase            = "INVALID_PHASE"
	CodeInvalidScore            = "INVALID_SCORE"
	CodeFormatNotSupported      = "FORMAT_NOT_SUPPORTED"
	CodeTeamEngineRequired      = "INTERCLUB_TEAM_ENGINE_REQUIRED"
	CodeUnauthenticated         = "UNAUTHENTICATED"
	CodeForbidden               = "FORBIDDEN"
	CodeEmailNotVerified        = "EMAIL_NOT_VERIFIED"
	CodeEventNotFound           = "EVENT_NOT_FOUND"
	CodeMatchNotFound           = "MATCH_NOT_FOUND"
	CodeCategoryNotAvailable    = "CATEGORY_NOT_AVAILABLE"
	CodeTournamentConfigLocked  = "TOURNAMENT_CONFIG_LOCKED"
	CodeGenerationInProgress    = "GENERATION_IN_PROGRESS"
	CodeScheduleHasResults      = "SCHEDULE_HAS_RESULTS"
	CodeGroupsAlreadyGenerated  = "GROUPS_ALREADY_GENERATED"
	CodeGroupsNotGenerated      = "GROUPS_NOT_GENERATED"
	CodeGroupsNotFinished       = "GROUPS_NOT_FINISHED"
	CodeKnockoutLocked          = "KNOCKOUT_LOCKED"
	CodeGenerationFailed        = "GENERATION_FAILED"
	CodeQualifyExceedsGroupSize = "QUALIFY_EXCEEDS_GROUP_SIZE"
	CodeMatchNotReady           = "MATCH_NOT_READY"
	CodeDownstreamLocked        = "DOWNSTREAM_LOCKED"
	CodeUndoNotFound            = "UNDO_NOT_FOUND"
	CodeUndoExpired             = "UNDO_EXPIRED"
	CodeRateLimited             = "RATE_LIMITED"
	CodeInternal                = "INTERNAL_ERROR"
)

var statusByCode = map[string]int{
	CodeInvalidInput:            http.StatusBadRequest,
	CodeInvalidFormat:           http.StatusBadRequest,
	CodeInvalidPhase:            http.StatusBadRequest,
	CodeInvalidScore:            http.StatusBadRequest,
	CodeCategoryNotAvailable:    http.StatusBadRequest,
	CodeFormatNotSupported:      http.StatusUnprocessableEntity,
	CodeTeamEngineRequired:      http.StatusUnprocessableEntity,
	CodeGenerationFailed:        http.StatusUnprocessableEntity,
	CodeQualifyExceedsGroupSize: http.StatusUnprocessableEntity,
	CodeUnauthenticated:         http.StatusUnauthorized,
	CodeForbidden:               http.StatusForbidden,
	CodeEmailNotVerified:        http.StatusForbidden,
	CodeEventNotFound:           http.StatusNotFound,
	CodeMatchNotFound:           http.StatusNotFound,
	CodeUndoNotFound:            http.StatusNotFound,
	CodeTournamentConfigLocked:  http.StatusConflict,
	CodeGenerationInProgress:    http.StatusConflict,
	CodeScheduleHasResults:      http.StatusConflict,
	CodeGroupsAlreadyGenerated:  http.StatusConflict,
	CodeGroupsNotGenerated:      http.StatusConflict,
	CodeGroupsNotFinished:       http.StatusConflict,
	CodeKnockoutLocked:          http.StatusConflict,
	CodeMatchNotReady:           http.StatusConflict,
	CodeDownstreamLocked:        http.StatusConflict,
	CodeUndoExpired:             http.StatusConflict,
	CodeRateLimited:             http.StatusTooManyRequests,
	CodeInternal:                http.StatusInternalServerError,
}

// ReasonError 이유 코드와 HTTP 상태를 가진 에러
type ReasonError struct {
	Code   string
	Status int
	Err    error
}

func (e *ReasonError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *ReasonError) Unwrap() error {
	return e.Err
}

// Is 같은 코드면 같은 에러로 취급
func (e *ReasonError) Is(target error) bool {
	var t *ReasonError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Reason 코드에 맞는 상태로 ReasonError 생성
func Reason(code string) *ReasonError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusBadRequest
	}
	return &ReasonError{Code: code, Status: status}
}

func reasonWrap(code string, err error) *ReasonError {
	r := Reason(code)
	r.Err = err
	return r
}

// AsReason 에러 체인에서 ReasonError를 꺼낸다. 없으면 INTERNAL_ERROR.
func AsReason(err error) *ReasonError {
	var r *ReasonError
	if errors.As(err, &r) {
		return r
	}
	return reasonWrap(CodeInternal, err)
}

// fromEngine 엔진 에러를 이유 코드로 변환
func fromEngine(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, padel.ErrInvalidFormat):
		return reasonWrap(CodeInvalidFormat, err)
	case errors.Is(err, padel.ErrInvalidPhase):
		return reasonWrap(CodeInvalidPhase, err)
	case errors.Is(err, padel.ErrFormatNotSupported):
		return reasonWrap(CodeFormatNotSupported, err)
	case errors.Is(err, padel.ErrTeamEngineRequired):
		return reasonWrap(CodeTeamEngineRequired, err)
	case errors.Is(err, padel.ErrNotEnoughPairings):
		return reasonWrap(CodeGenerationFailed, err)
	case errors.Is(err, padel.ErrQualifyExceedsGroupSize):
		return reasonWrap(CodeQualifyExceedsGroupSize, err)
	case errors.Is(err, padel.ErrInvalidScore):
		return reasonWrap(CodeInvalidScore, err)
	}
	return err
}
