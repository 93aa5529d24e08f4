package padel

import (
	"fmt"
	"strings"

	"github.com/padel-arena/padel-arena-backend/internal/models"
)

const (
	SeedingSnake = "SNAKE"
	SeedingNone  = "NONE"

	defaultQualifyPerGroup = 2
)

// GroupLayout 조 편성 결과 설정
type GroupLayout struct {
	GroupCount      int
	QualifyPerGroup int
	ExtraQualifiers int
	Snake           bool
}

// ResolveGroupLayout 참가 팀 수와 설정으로 조 개수와 진출 인원 결정.
// 조 개수 우선순위: groupCount > groupSize > 기본값 (4팀 이상이면 2개 조)
func ResolveGroupLayout(n int, cfg models.GroupsConfig) (GroupLayout, error) {
	if n < 2 {
		return GroupLayout{}, ErrNotEnoughPairings
	}

	count := 1
	switch {
	case cfg.GroupCount > 0:
		count = cfg.GroupCount
	case cfg.GroupSize > 0:
		count = (n + cfg.GroupSize - 1) / cfg.GroupSize
	case n >= 4:
		count = 2
	}
	// 각 조는 최소 2팀
	if count > n/2 {
		count = n / 2
	}
	if count < 1 {
		count = 1
	}

	layout := GroupLayout{
		GroupCount:      count,
		QualifyPerGroup: cfg.QualifyPerGroup,
		ExtraQualifiers: max(cfg.ExtraQualifiers, 0),
		Snake:           !strings.EqualFold(cfg.Seeding, SeedingNone),
	}
	if layout.QualifyPerGroup <= 0 {
		layout.QualifyPerGroup = defaultQualifyPerGroup
	}

	smallest := n / count
	if layout.QualifyPerGroup > smallest {
		return GroupLayout{}, ErrQualifyExceedsGroupSize
	}
	if layout.ExtraQualifiers > n-layout.QualifyPerGroup*count {
		layout.ExtraQualifiers = n - layout.QualifyPerGroup*count
	}
	return layout, nil
}

// DistributeIntoGroups 순서대로 정렬된 페어링을 조에 배분.
// snake면 A B C C B A 순으로 배치해 상위 시드가 고르게 퍼진다.
func DistributeIntoGroups(ids []string, groupCount int, snake bool) [][]string {
	if groupCount < 1 {
		groupCount = 1
	}
	groups := make([][]string, groupCount)

	for i, id := range ids {
		row, col := i/groupCount, i%groupCount
		if snake && row%2 == 1 {
			col = groupCount - 1 - col
		}
		groups[col] = append(groups[col], id)
	}
	return groups
}

// GroupLabel 0 → "A", 1 → "B" ...
func GroupLabel(index int) string {
	if index >= 0 && index < 26 {
		return string(rune('A' + index))
	}
	return fmt.Sprintf("G%d", index+1)
}
