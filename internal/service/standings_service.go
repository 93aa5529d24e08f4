package service

import (
	"context"
	"sort"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/internal/padel"
	"github.com/padel-arena/padel-arena-backend/internal/repository"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
)

// StandingsResult 조별 순위표
type StandingsResult struct {
	EventID    string               `json:"eventId"`
	CategoryID *string              `json:"categoryId,omitempty"`
	Groups     padel.GroupStandings `json:"groups"`
	Labels     []string             `json:"groupLabels"`
}

// StandingsService 공개 조회 (순위표, 경기 목록)
type StandingsService struct {
	db *database.DB
}

func NewStandingsService(db *database.DB) *StandingsService {
	return &StandingsService{db: db}
}

// Standings 조별 경기 결과로 순위 계산
func (s *StandingsService) Standings(ctx context.Context, eventID string, categoryID *string) (*StandingsResult, error) {
	directory := repository.NewDirectoryRepository(s.db)
	if err := s.requireEvent(ctx, directory, eventID); err != nil {
		return nil, err
	}

	cfg, err := directory.FindTournamentConfig(ctx, eventID)
	if err != nil {
		return nil, err
	}
	var (
		table models.PointsTable
		rules []models.TieBreakRule
	)
	if cfg != nil {
		table = cfg.PointsTable.Data()
		rules = cfg.TieBreakRules.Data()
	}

	matches, err := repository.NewMatchRepository(s.db).List(ctx, repository.MatchFilter{
		EventID:    eventID,
		CategoryID: categoryID,
		RoundType:  models.RoundGroups,
	})
	if err != nil {
		return nil, err
	}

	groups := padel.ComputeStandings(matches, table, rules)
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	return &StandingsResult{
		EventID:    eventID,
		CategoryID: categoryID,
		Groups:     groups,
		Labels:     labels,
	}, nil
}

// Matches 경기 목록. roundType은 비어 있거나 GROUPS/KNOCKOUT.
func (s *StandingsService) Matches(ctx context.Context, eventID string, categoryID *string, roundType string) ([]models.Match, error) {
	round := models.RoundType(roundType)
	if round != "" && round != models.RoundGroups && round != models.RoundKnockout {
		return nil, Reason(CodeInvalidInput)
	}
	if err := s.requireEvent(ctx, repository.NewDirectoryRepository(s.db), eventID); err != nil {
		return nil, err
	}

	matches, err := repository.NewMatchRepository(s.db).List(ctx, repository.MatchFilter{
		EventID:    eventID,
		CategoryID: categoryID,
		RoundType:  round,
	})
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []models.Match{}
	}
	return matches, nil
}

func (s *StandingsService) requireEvent(ctx context.Context, directory *repository.DirectoryRepository, eventID string) error {
	if eventID == "" {
		return Reason(CodeInvalidInput)
	}
	event, err := directory.FindEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return Reason(CodeEventNotFound)
	}
	return nil
}
