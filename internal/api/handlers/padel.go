package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/padel-arena/padel-arena-backend/internal/api/middleware"
	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/internal/service"
	"go.uber.org/zap"
)

type PadelHandler struct {
	generation *service.GenerationService
	results    *service.ResultService
	standings  *service.StandingsService
	integrity  *service.IntegrityService
	inbox      *service.InboxService
	logger     *zap.Logger
}

func NewPadelHandler(
	generation *service.GenerationService,
	results *service.ResultService,
	standings *service.StandingsService,
	integrity *service.IntegrityService,
	inbox *service.InboxService,
	logger *zap.Logger,
) *PadelHandler {
	return &PadelHandler{
		generation: generation,
		results:    results,
		standings:  standings,
		integrity:  integrity,
		inbox:      inbox,
		logger:     logger,
	}
}

// GenerateRequest 대진 생성 요청 본문
type GenerateRequest struct {
	CategoryID      *string `json:"categoryId"`
	Format          string  `json:"format"`
	Phase           string  `json:"phase"`
	AllowIncomplete bool    `json:"allowIncomplete"`
}

// SubmitResultRequest 결과 입력 요청 본문
type SubmitResultRequest struct {
	Score models.MatchScore `json:"score"`
}

// Generate 카테고리 대진 생성
func (h *PadelHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, service.Reason(service.CodeInvalidInput))
		return
	}
	if req.CategoryID != nil && *req.CategoryID == "" {
		req.CategoryID = nil
	}

	result, err := h.generation.Generate(c.Request.Context(), middleware.UserID(c), service.GenerateInput{
		EventID:         c.Param("eventId"),
		CategoryID:      req.CategoryID,
		Format:          req.Format,
		Phase:           req.Phase,
		AllowIncomplete: req.AllowIncomplete,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"format":            result.Format,
		"phase":             result.Phase,
		"generationVersion": result.GenerationVersion,
		"matches":           result.Matches,
		"replaced":          result.Replaced,
		"koSeedSnapshot":    result.Seeds,
	})
}

// Standings 조별 순위 (공개)
func (h *PadelHandler) Standings(c *gin.Context) {
	result, err := h.standings.Standings(c.Request.Context(), c.Param("eventId"), optionalQuery(c, "categoryId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"eventId":     result.EventID,
		"categoryId":  result.CategoryID,
		"groups":      result.Groups,
		"groupLabels": result.Labels,
	})
}

// ListMatches 경기 목록 (공개)
func (h *PadelHandler) ListMatches(c *gin.Context) {
	matches, err := h.standings.Matches(c.Request.Context(), c.Param("eventId"), optionalQuery(c, "categoryId"), c.Query("roundType"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"matches": matches,
		"total":   len(matches),
	})
}

// SubmitResult 경기 결과 입력
func (h *PadelHandler) SubmitResult(c *gin.Context) {
	var req SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, service.Reason(service.CodeInvalidInput))
		return
	}

	match, err := h.results.SubmitResult(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Score)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{"match": match})
}

// Undo 마지막 결과 입력 되돌리기
func (h *PadelHandler) Undo(c *gin.Context) {
	outcome, err := h.results.UndoResult(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"match":        outcome.Match,
		"sourceLogId":  outcome.SourceLogID,
		"slotReverted": outcome.SlotReverted,
	})
}

// Integrity 이벤트 페어링 정합성 점검
func (h *PadelHandler) Integrity(c *gin.Context) {
	summary, err := h.integrity.EvaluateEvent(c.Request.Context(), middleware.UserID(c), c.Param("eventId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{"summary": summary})
}

// Notifications 페어링 알림함 (운영자용)
func (h *PadelHandler) Notifications(c *gin.Context) {
	entries, err := h.inbox.List(c.Request.Context(), middleware.UserID(c), c.Param("eventId"), c.Param("pairingId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"notifications": entries,
		"total":         len(entries),
	})
}
