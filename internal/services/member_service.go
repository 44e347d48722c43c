package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
)

type MemberService struct {
	db database.Database
}

func NewMemberService(db database.Database) *MemberService {
	return &MemberService{db: db}
}

// InviteInput carries a member invitation.
type InviteInput struct {
	Email        string      `json:"email" binding:"required,email"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Role         models.Role `json:"role"`
	DivisionID   *uint       `json:"division_id"`
	DepartmentID *uint       `json:"department_id"`
	TeamID       *uint       `json:"team_id"`
}

// Invite creates an inactive user with an invitation token. The user-limit
// check and the counter bump happen in the same transaction so concurrent
// invites cannot overshoot the limit.
func (s *MemberService) Invite(ctx context.Context, input InviteInput) (*models.User, error) {
	tc := tenant.FromContext(ctx)
	if tc == nil {
		return nil, ErrForbidden
	}
	if input.Role == "" {
		input.Role = models.RoleMember
	}
	if input.Role == models.RoleHQAdmin {
		return nil, ErrForbidden
	}

	token := uuid.New().String()
	now := time.Now().UTC()
	member := models.User{
		UUID:             uuid.New().String(),
		CompanyID:        &tc.CompanyID,
		DivisionID:       input.DivisionID,
		DepartmentID:     input.DepartmentID,
		TeamID:           input.TeamID,
		Email:            input.Email,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Role:             input.Role,
		IsActive:         false,
		InvitationToken:  &token,
		InvitationSentAt: &now,
	}

	err := s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.First(&company, tc.CompanyID).Error; err != nil {
			return err
		}
		if company.CurrentUserCount >= company.UserLimit {
			return ErrUserLimitReached
		}
		// Select("*") forces the zero-valued is_active into the insert;
		// a plain Create omits it and the column default of true wins,
		// letting invitees log in before accepting.
		if err := tx.Select("*").Create(&member).Error; err != nil {
			return err
		}
		return tx.Model(&company).
			Update("current_user_count", gorm.Expr("current_user_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// AcceptInvitationInput completes a personal invitation.
type AcceptInvitationInput struct {
	Token     string `json:"token" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AcceptInvitation activates the invited user and sets their password.
// Invitations expire after 14 days.
func (s *MemberService) AcceptInvitation(ctx context.Context, input AcceptInvitationInput) (*models.User, error) {
	var member models.User
	err := s.db.DB().WithContext(ctx).
		Where("invitation_token = ? AND invitation_accepted_at IS NULL", input.Token).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if member.InvitationSentAt != nil && time.Since(*member.InvitationSentAt) > 14*24*time.Hour {
		return nil, ErrInviteExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	member.PasswordHash = string(hash)
	member.IsActive = true
	member.InvitationToken = nil
	member.InvitationAcceptedAt = &now
	if input.FirstName != "" {
		member.FirstName = input.FirstName
	}
	if input.LastName != "" {
		member.LastName = input.LastName
	}
	if err := s.db.DB().WithContext(ctx).Save(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// JoinByUnitLinkInput is the self-signup path behind a unit invitation
// link.
type JoinByUnitLinkInput struct {
	Token     string `json:"token" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// JoinByUnitLink creates an active member placed into whichever unit the
// token belongs to. The same limit transaction as Invite applies.
func (s *MemberService) JoinByUnitLink(ctx context.Context, input JoinByUnitLinkInput) (*models.User, error) {
	companyID, divisionID, departmentID, teamID, err := s.resolveUnitToken(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	member := models.User{
		UUID:                 uuid.New().String(),
		CompanyID:            &companyID,
		DivisionID:           divisionID,
		DepartmentID:         departmentID,
		TeamID:               teamID,
		Email:                input.Email,
		PasswordHash:         string(hash),
		FirstName:            input.FirstName,
		LastName:             input.LastName,
		Role:                 models.RoleMember,
		IsActive:             true,
		InvitationAcceptedAt: &now,
	}

	err = s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.First(&company, companyID).Error; err != nil {
			return err
		}
		if company.CurrentUserCount >= company.UserLimit {
			return ErrUserLimitReached
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return tx.Model(&company).
			Update("current_user_count", gorm.Expr("current_user_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// resolveUnitToken finds which enabled unit link a token belongs to and
// returns the placement for the new member.
func (s *MemberService) resolveUnitToken(ctx context.Context, token string) (companyID uint, divisionID, departmentID, teamID *uint, err error) {
	db := s.db.DB().WithContext(ctx)

	var team models.Team
	if err := db.Where("invitation_token = ? AND invitation_enabled = ?", token, true).
		First(&team).Error; err == nil {
		return team.CompanyID, team.DivisionID, team.DepartmentID, &team.ID, nil
	}

	var department models.Department
	if err := db.Where("invitation_token = ? AND invitation_enabled = ?", token, true).
		First(&department).Error; err == nil {
		return department.CompanyID, department.DivisionID, &department.ID, nil, nil
	}

	var division models.Division
	if err := db.Where("invitation_token = ? AND invitation_enabled = ?", token, true).
		First(&division).Error; err == nil {
		return division.CompanyID, &division.ID, nil, nil, nil
	}

	return 0, nil, nil, nil, ErrNotFound
}

// MemberFilter narrows the member listing.
type MemberFilter struct {
	Role         models.Role
	DivisionID   *uint
	DepartmentID *uint
	TeamID       *uint
	ActiveOnly   bool
}

func (s *MemberService) List(ctx context.Context, filter MemberFilter, page, limit int) ([]models.User, int64, error) {
	q := tenant.Scoped(s.db.DB().WithContext(ctx).Model(&models.User{}), ctx)
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.DivisionID != nil {
		q = q.Where("division_id = ?", *filter.DivisionID)
	}
	if filter.DepartmentID != nil {
		q = q.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.TeamID != nil {
		q = q.Where("team_id = ?", *filter.TeamID)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var members []models.User
	err := q.Order("id").Offset((page - 1) * limit).Limit(limit).Find(&members).Error
	return members, total, err
}

func (s *MemberService) Get(ctx context.Context, id uint) (*models.User, error) {
	var member models.User
	err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).
		Where("id = ?", id).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

// UpdateInput patches member placement and role. Nil means unchanged;
// explicit zero clears the unit reference.
type UpdateMemberInput struct {
	FirstName    *string      `json:"first_name"`
	LastName     *string      `json:"last_name"`
	Role         *models.Role `json:"role"`
	DivisionID   *uint        `json:"division_id"`
	DepartmentID *uint        `json:"department_id"`
	TeamID       *uint        `json:"team_id"`
	IsActive     *bool        `json:"is_active"`
}

func (s *MemberService) Update(ctx context.Context, id uint, input UpdateMemberInput) (*models.User, error) {
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Role != nil {
		if *input.Role == models.RoleHQAdmin {
			return nil, ErrForbidden
		}
		member.Role = *input.Role
	}
	if input.FirstName != nil {
		member.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		member.LastName = *input.LastName
	}
	if input.DivisionID != nil {
		member.DivisionID = zeroToNil(input.DivisionID)
	}
	if input.DepartmentID != nil {
		member.DepartmentID = zeroToNil(input.DepartmentID)
	}
	if input.TeamID != nil {
		member.TeamID = zeroToNil(input.TeamID)
	}
	if input.IsActive != nil {
		member.IsActive = *input.IsActive
	}
	if err := s.db.DB().WithContext(ctx).Save(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// Deactivate soft-deletes the member and frees a seat.
func (s *MemberService) Deactivate(ctx context.Context, id uint) error {
	member, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(member).Error; err != nil {
			return err
		}
		return tx.Model(&models.Company{}).
			Where("id = ? AND current_user_count > 0", *member.CompanyID).
			Update("current_user_count", gorm.Expr("current_user_count - 1")).Error
	})
}

func zeroToNil(v *uint) *uint {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}
