package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

// OrgService manages the optional division/department/team hierarchy.
// All queries go through tenant.Scoped so a request can never touch
// another company's units.
type OrgService struct {
	db database.Database
}

func NewOrgService(db database.Database) *OrgService {
	return &OrgService{db: db}
}

// OrgUnitInput carries create/update fields shared by all three levels.
type OrgUnitInput struct {
	Name         string `json:"name" binding:"required"`
	Slug         string `json:"slug"`
	SortOrder    int    `json:"sort_order"`
	IsActive     *bool  `json:"is_active"`
	DivisionID   *uint  `json:"division_id"`
	DepartmentID *uint  `json:"department_id"`
}

func (in *OrgUnitInput) slugOrDerived() string {
	if s := strings.TrimSpace(in.Slug); s != "" {
		return s
	}
	return utils.Slugify(in.Name)
}

// --- Divisions ---

func (s *OrgService) ListDivisions(ctx context.Context) ([]models.Division, error) {
	var divisions []models.Division
	err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).
		Order("sort_order, id").
		Find(&divisions).Error
	return divisions, err
}

func (s *OrgService) CreateDivision(ctx context.Context, input OrgUnitInput) (*models.Division, error) {
	tc := tenant.FromContext(ctx)
	if tc == nil {
		return nil, ErrForbidden
	}
	division := models.Division{
		CompanyID: tc.CompanyID,
		Name:      input.Name,
		Slug:      input.slugOrDerived(),
		SortOrder: input.SortOrder,
		IsActive:  true,
	}
	if err := s.db.DB().WithContext(ctx).Create(&division).Error; err != nil {
		return nil, err
	}
	return &division, nil
}

func (s *OrgService) UpdateDivision(ctx context.Context, id uint, input OrgUnitInput) (*models.Division, error) {
	var division models.Division
	if err := s.findScoped(ctx, &division, id); err != nil {
		return nil, err
	}
	applyUnitInput(&division.Name, &division.Slug, &division.SortOrder, &division.IsActive, input)
	if err := s.db.DB().WithContext(ctx).Save(&division).Error; err != nil {
		return nil, err
	}
	return &division, nil
}

// DeleteDivision soft-deletes the division and detaches its departments
// and teams rather than cascading.
func (s *OrgService) DeleteDivision(ctx context.Context, id uint) error {
	var division models.Division
	if err := s.findScoped(ctx, &division, id); err != nil {
		return err
	}
	return s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Department{}).
			Where("company_id = ? AND division_id = ?", division.CompanyID, division.ID).
			Update("division_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Team{}).
			Where("company_id = ? AND division_id = ?", division.CompanyID, division.ID).
			Update("division_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("company_id = ? AND division_id = ?", division.CompanyID, division.ID).
			Update("division_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&division).Error
	})
}

// --- Departments ---

func (s *OrgService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).
		Order("sort_order, id").
		Find(&departments).Error
	return departments, err
}

func (s *OrgService) CreateDepartment(ctx context.Context, input OrgUnitInput) (*models.Department, error) {
	tc := tenant.FromContext(ctx)
	if tc == nil {
		return nil, ErrForbidden
	}
	if input.DivisionID != nil {
		var division models.Division
		if err := s.findScoped(ctx, &division, *input.DivisionID); err != nil {
			return nil, err
		}
	}
	department := models.Department{
		CompanyID:  tc.CompanyID,
		DivisionID: input.DivisionID,
		Name:       input.Name,
		Slug:       input.slugOrDerived(),
		SortOrder:  input.SortOrder,
		IsActive:   true,
	}
	if err := s.db.DB().WithContext(ctx).Create(&department).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

func (s *OrgService) UpdateDepartment(ctx context.Context, id uint, input OrgUnitInput) (*models.Department, error) {
	var department models.Department
	if err := s.findScoped(ctx, &department, id); err != nil {
		return nil, err
	}
	applyUnitInput(&department.Name, &department.Slug, &department.SortOrder, &department.IsActive, input)
	if input.DivisionID != nil {
		var division models.Division
		if err := s.findScoped(ctx, &division, *input.DivisionID); err != nil {
			return nil, err
		}
		department.DivisionID = input.DivisionID
	}
	if err := s.db.DB().WithContext(ctx).Save(&department).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

func (s *OrgService) DeleteDepartment(ctx context.Context, id uint) error {
	var department models.Department
	if err := s.findScoped(ctx, &department, id); err != nil {
		return err
	}
	return s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Team{}).
			Where("company_id = ? AND department_id = ?", department.CompanyID, department.ID).
			Update("department_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("company_id = ? AND department_id = ?", department.CompanyID, department.ID).
			Update("department_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&department).Error
	})
}

// --- Teams ---

func (s *OrgService) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).
		Order("sort_order, id").
		Find(&teams).Error
	return teams, err
}

func (s *OrgService) CreateTeam(ctx context.Context, input OrgUnitInput) (*models.Team, error) {
	tc := tenant.FromContext(ctx)
	if tc == nil {
		return nil, ErrForbidden
	}
	team := models.Team{
		CompanyID:    tc.CompanyID,
		DivisionID:   input.DivisionID,
		DepartmentID: input.DepartmentID,
		Name:         input.Name,
		Slug:         input.slugOrDerived(),
		SortOrder:    input.SortOrder,
		IsActive:     true,
	}
	if input.DepartmentID != nil {
		var department models.Department
		if err := s.findScoped(ctx, &department, *input.DepartmentID); err != nil {
			return nil, err
		}
		// Inherit the division from the parent when unset.
		if team.DivisionID == nil {
			team.DivisionID = department.DivisionID
		}
	}
	if err := s.db.DB().WithContext(ctx).Create(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *OrgService) UpdateTeam(ctx context.Context, id uint, input OrgUnitInput) (*models.Team, error) {
	var team models.Team
	if err := s.findScoped(ctx, &team, id); err != nil {
		return nil, err
	}
	applyUnitInput(&team.Name, &team.Slug, &team.SortOrder, &team.IsActive, input)
	if input.DepartmentID != nil {
		var department models.Department
		if err := s.findScoped(ctx, &department, *input.DepartmentID); err != nil {
			return nil, err
		}
		team.DepartmentID = input.DepartmentID
	}
	if input.DivisionID != nil {
		team.DivisionID = input.DivisionID
	}
	if err := s.db.DB().WithContext(ctx).Save(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *OrgService) DeleteTeam(ctx context.Context, id uint) error {
	var team models.Team
	if err := s.findScoped(ctx, &team, id); err != nil {
		return err
	}
	return s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("company_id = ? AND team_id = ?", team.CompanyID, team.ID).
			Update("team_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&team).Error
	})
}

// SeedHierarchyInput describes one branch of an initial org chart.
type SeedHierarchyInput struct {
	Division    string                `json:"division" binding:"required"`
	Departments []SeedDepartmentInput `json:"departments"`
}

type SeedDepartmentInput struct {
	Name  string   `json:"name" binding:"required"`
	Teams []string `json:"teams"`
}

// SeedHierarchy creates a division with its departments and teams in one
// transaction, used during company onboarding. All or nothing.
func (s *OrgService) SeedHierarchy(ctx context.Context, input SeedHierarchyInput) (*models.Division, error) {
	tc := tenant.FromContext(ctx)
	if tc == nil {
		return nil, ErrForbidden
	}

	division := models.Division{
		CompanyID: tc.CompanyID,
		Name:      input.Division,
		Slug:      utils.Slugify(input.Division),
		IsActive:  true,
	}

	err := s.db.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&division).Error; err != nil {
			return err
		}
		for i, dep := range input.Departments {
			department := models.Department{
				CompanyID:  tc.CompanyID,
				DivisionID: &division.ID,
				Name:       dep.Name,
				Slug:       utils.Slugify(dep.Name),
				SortOrder:  i,
				IsActive:   true,
			}
			if err := tx.Create(&department).Error; err != nil {
				return err
			}
			for j, teamName := range dep.Teams {
				team := models.Team{
					CompanyID:    tc.CompanyID,
					DivisionID:   &division.ID,
					DepartmentID: &department.ID,
					Name:         teamName,
					Slug:         utils.Slugify(teamName),
					SortOrder:    j,
					IsActive:     true,
				}
				if err := tx.Create(&team).Error; err != nil {
					return err
				}
			}
			division.Departments = append(division.Departments, department)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &division, nil
}

// --- Invitation links ---

// EnableInvitation mints (or keeps) the unit's invitation token and turns
// the link on. kind is one of division, department, team.
func (s *OrgService) EnableInvitation(ctx context.Context, kind models.EntityKind, id uint) (string, error) {
	token := uuid.New().String()
	update := func(unit interface{}, existing *string) error {
		if existing != nil && *existing != "" {
			token = *existing
		}
		return s.db.DB().WithContext(ctx).Model(unit).
			Updates(map[string]interface{}{
				"invitation_token":   token,
				"invitation_enabled": true,
			}).Error
	}

	switch kind {
	case models.EntityDivision:
		var division models.Division
		if err := s.findScoped(ctx, &division, id); err != nil {
			return "", err
		}
		return token, update(&division, division.InvitationToken)
	case models.EntityDepartment:
		var department models.Department
		if err := s.findScoped(ctx, &department, id); err != nil {
			return "", err
		}
		return token, update(&department, department.InvitationToken)
	case models.EntityTeam:
		var team models.Team
		if err := s.findScoped(ctx, &team, id); err != nil {
			return "", err
		}
		return token, update(&team, team.InvitationToken)
	}
	return "", ErrNotFound
}

// DisableInvitation turns the unit's invitation link off. The token is kept
// so re-enabling restores the same URL.
func (s *OrgService) DisableInvitation(ctx context.Context, kind models.EntityKind, id uint) error {
	var unit interface{}
	switch kind {
	case models.EntityDivision:
		var division models.Division
		if err := s.findScoped(ctx, &division, id); err != nil {
			return err
		}
		unit = &division
	case models.EntityDepartment:
		var department models.Department
		if err := s.findScoped(ctx, &department, id); err != nil {
			return err
		}
		unit = &department
	case models.EntityTeam:
		var team models.Team
		if err := s.findScoped(ctx, &team, id); err != nil {
			return err
		}
		unit = &team
	default:
		return ErrNotFound
	}
	return s.db.DB().WithContext(ctx).Model(unit).
		Update("invitation_enabled", false).Error
}

func (s *OrgService) findScoped(ctx context.Context, dest interface{}, id uint) error {
	err := tenant.Scoped(s.db.DB().WithContext(ctx), ctx).
		Where("id = ?", id).
		First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func applyUnitInput(name, slug *string, sortOrder *int, isActive *bool, input OrgUnitInput) {
	if input.Name != "" {
		*name = input.Name
	}
	if s := strings.TrimSpace(input.Slug); s != "" {
		*slug = s
	}
	if input.SortOrder != 0 {
		*sortOrder = input.SortOrder
	}
	if input.IsActive != nil {
		*isActive = *input.IsActive
	}
}
