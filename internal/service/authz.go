package service

import (
	"context"
	"fmt"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/internal/repository"
)

// Access 권한 확인을 통과한 요청의 조직/이벤트 정보
type Access struct {
	Event        *models.Event
	Organization *models.Organization
	Member       *models.OrganizationMember
}

// Authorizer 조직 멤버십 기반 권한 확인
type Authorizer struct {
	directory *repository.DirectoryRepository
}

func NewAuthorizer(directory *repository.DirectoryRepository) *Authorizer {
	return &Authorizer{directory: directory}
}

// RequireTournamentEditor 토너먼트 모듈 EDIT 권한
func (a *Authorizer) RequireTournamentEditor(ctx context.Context, userID, eventID string) (*Access, error) {
	access, err := a.load(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if !canEditTournaments(access.Member) {
		return nil, Reason(CodeForbidden)
	}
	return access, nil
}

// RequireSeniorRole OWNER/CO_OWNER만 허용 (미완료 조별 리그 강제 진행 등)
func (a *Authorizer) RequireSeniorRole(access *Access) error {
	if access == nil || access.Member == nil {
		return Reason(CodeForbidden)
	}
	switch access.Member.Role {
	case models.RoleOwner, models.RoleCoOwner:
		return nil
	}
	return Reason(CodeForbidden)
}

// RequireOperator 결과 입력/취소 권한. 운영 역할 + EDIT 권한 + 조직 이메일 인증.
func (a *Authorizer) RequireOperator(ctx context.Context, userID, eventID string) (*Access, error) {
	access, err := a.load(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	switch access.Member.Role {
	case models.RoleOwner, models.RoleCoOwner, models.RoleAdmin, models.RoleStaff:
	default:
		return nil, Reason(CodeForbidden)
	}
	if !canEditTournaments(access.Member) {
		return nil, Reason(CodeForbidden)
	}
	if access.Organization.EmailVerifiedAt == nil {
		return nil, Reason(CodeEmailNotVerified)
	}
	return access, nil
}

func (a *Authorizer) load(ctx context.Context, userID, eventID string) (*Access, error) {
	if userID == "" {
		return nil, Reason(CodeUnauthenticated)
	}

	event, err := a.directory.FindEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, Reason(CodeEventNotFound)
	}

	org, err := a.directory.FindOrganization(ctx, event.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if org == nil {
		return nil, Reason(CodeForbidden)
	}

	member, err := a.directory.FindMember(ctx, org.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	if member == nil {
		return nil, Reason(CodeForbidden)
	}

	return &Access{Event: event, Organization: org, Member: member}, nil
}

// canEditTournaments 소유자는 모듈 설정과 무관하게 편집 가능
func canEditTournaments(m *models.OrganizationMember) bool {
	switch m.Role {
	case models.RoleOwner, models.RoleCoOwner:
		return true
	case models.RoleViewer:
		return false
	}
	return m.TournamentsAccess == models.AccessEdit
}
