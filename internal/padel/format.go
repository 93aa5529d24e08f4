package padel

import (
	"errors"
	"strings"
)

var (
	ErrInvalidFormat           = errors.New("invalid format")
	ErrInvalidPhase            = errors.New("invalid phase")
	ErrFormatNotSupported      = errors.New("format not supported")
	ErrTeamEngineRequired      = errors.New("interclub format requires team engine")
	ErrNotEnoughPairings       = errors.New("not enough confirmed pairings")
	ErrQualifyExceedsGroupSize = errors.New("qualifiers per group exceed group size")
)

type Format string

const (
	FormatRoundRobin     Format = "TODOS_CONTRA_TODOS"
	FormatLeague         Format = "CAMPEONATO_LIGA"
	FormatNonStop        Format = "NON_STOP"
	FormatGroupsKnockout Format = "GRUPOS_ELIMINATORIAS"
	FormatKnockout       Format = "QUADRO_ELIMINATORIO"
	FormatABDraw         Format = "QUADRO_AB"
	FormatDoubleElim     Format = "DUPLA_ELIMINACAO"
	FormatAmericano      Format = "AMERICANO"
	FormatMexicano       Format = "MEXICANO"
	FormatInterclub      Format = "INTERCLUB_EQUIPAS"
)

// Family 생성 알고리즘 계열
type Family int

const (
	FamilyUnsupported Family = iota
	FamilyRoundRobin
	FamilyGroupsKnockout
	FamilySingleElimination
	FamilyTeam
)

type Phase string

const (
	PhaseGroups   Phase = "GROUPS"
	PhaseKnockout Phase = "KNOCKOUT"
)

var formatAliases = map[string]Format{
	"TODOS_CONTRA_TODOS":   FormatRoundRobin,
	"ROUND_ROBIN":          FormatRoundRobin,
	"CAMPEONATO_LIGA":      FormatLeague,
	"LEAGUE":               FormatLeague,
	"NON_STOP":             FormatNonStop,
	"NONSTOP":              FormatNonStop,
	"GRUPOS_ELIMINATORIAS": FormatGroupsKnockout,
	"GROUPS_KNOCKOUT":      FormatGroupsKnockout,
	"QUADRO_ELIMINATORIO":  FormatKnockout,
	"KNOCKOUT":             FormatKnockout,
	"SINGLE_ELIMINATION":   FormatKnockout,
	"QUADRO_AB":            FormatABDraw,
	"DUPLA_ELIMINACAO":     FormatDoubleElim,
	"DOUBLE_ELIMINATION":   FormatDoubleElim,
	"AMERICANO":            FormatAmericano,
	"MEXICANO":             FormatMexicano,
	"INTERCLUB_EQUIPAS":    FormatInterclub,
	"INTERCLUB":            FormatInterclub,
}

// ParseFormat 자유 입력 문자열을 포맷으로 변환
func ParseFormat(raw string) (Format, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if key == "" {
		return "", ErrInvalidFormat
	}

	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	if strings.HasPrefix(key, "INTERCLUB") {
		return FormatInterclub, nil
	}
	return "", ErrInvalidFormat
}

// Family 포맷의 생성 계열
func (f Format) Family() Family {
	switch f {
	case FormatRoundRobin, FormatLeague, FormatNonStop:
		return FamilyRoundRobin
	case FormatGroupsKnockout:
		return FamilyGroupsKnockout
	case FormatKnockout:
		return FamilySingleElimination
	case FormatInterclub:
		return FamilyTeam
	default:
		return FamilyUnsupported
	}
}

// Validate 현재 엔진이 생성할 수 있는 포맷인지 확인
func (f Format) Validate(isInterclub bool) error {
	switch f.Family() {
	case FamilyTeam:
		return ErrTeamEngineRequired
	case FamilyUnsupported:
		return ErrFormatNotSupported
	}
	if isInterclub {
		return ErrTeamEngineRequired
	}
	return nil
}

// DefaultGroupLabel 단일 리그 포맷의 그룹 라벨
func (f Format) DefaultGroupLabel() string {
	if f == FormatNonStop {
		return "NS"
	}
	return "A"
}

// ResolvePhase 포맷에 맞는 페이즈 결정. 빈 값은 포맷의 첫 페이즈.
func ResolvePhase(f Format, raw string) (Phase, error) {
	p := Phase(strings.ToUpper(strings.TrimSpace(raw)))

	switch f.Family() {
	case FamilyGroupsKnockout:
		if p == "" {
			return PhaseGroups, nil
		}
		if p == PhaseGroups || p == PhaseKnockout {
			return p, nil
		}
	case FamilyRoundRobin:
		if p == "" || p == PhaseGroups {
			return PhaseGroups, nil
		}
	case FamilySingleElimination:
		if p == "" || p == PhaseKnockout {
			return PhaseKnockout, nil
		}
	}
	return "", ErrInvalidPhase
}
