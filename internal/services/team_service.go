package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// teamService handles team-related business logic.
type teamService struct {
	db *gorm.DB
}

// NewTeamService creates a new TeamServicer.
func NewTeamService(db *gorm.DB) TeamServicer {
	return &teamService{db: db}
}

// CreateTeam creates a new team
func (s *teamService) CreateTeam(name, description string) (*models.Team, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "team name is required")
	}

	var count int64
	if err := s.db.Model(&models.Team{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "team with this name already exists")
	}

	team := &models.Team{Name: name, Description: description}
	if err := s.db.Create(team).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return team, nil
}

// GetTeams retrieves a paginated list of teams.
func (s *teamService) GetTeams(page pagination.PageRequest) (*pagination.PageResponse[models.Team], error) {
	page.Defaults()

	base := s.db.Model(&models.Team{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var teams []models.Team
	if err := base.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(teams, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTeamByID retrieves a team by ID
func (s *teamService) GetTeamByID(teamID string) (*models.Team, error) {
	var team models.Team
	if err := s.db.Where("id = ?", teamID).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTeamNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &team, nil
}

// UpdateTeam updates a team's name and description.
func (s *teamService) UpdateTeam(teamID string, name, description string) (*models.Team, error) {
	team, err := s.GetTeamByID(teamID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}

	if len(updates) > 0 {
		if err := s.db.Model(team).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", team.ID).First(team).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return team, nil
}

// DeleteTeam soft-deletes a team with no referencing transactions.
func (s *teamService) DeleteTeam(teamID string) error {
	team, err := s.GetTeamByID(teamID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Transaction{}).Where("team_id = ?", team.ID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrTeamInUse
	}

	if err := s.db.Delete(team).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
