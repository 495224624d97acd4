package repositories

import (
	"errors"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update saves the profile fields of an existing user.
func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"full_name": user.FullName,
		"email":     user.Email,
		"phone":     user.Phone,
		"role":      user.Role,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update user %d: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %d: %w", user.ID, ErrNotFound)
	}
	return nil
}

// UpdatePasswordHash replaces the stored digest of a user.
func (r *GORMUserRepository) UpdatePasswordHash(id uint, hash string) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("failed to update password of user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	return r.first("username = ?", username, "username "+username)
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.first("email = ?", email, "email "+email)
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id uint) (*models.User, error) {
	return r.first("id = ?", id, fmt.Sprintf("ID %d", id))
}

func (r *GORMUserRepository) first(query string, arg interface{}, what string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with %s: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", what, err)
	}
	return &user, nil
}

// GetByIDs loads the users with the given ids, keyed by id. Missing ids are absent.
func (r *GORMUserRepository) GetByIDs(ids []uint) (map[uint]models.User, error) {
	users := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	var rows []models.User
	if err := r.db.Unscoped().Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}

// EmailTakenByOther reports whether a user other than userID owns email.
func (r *GORMUserRepository) EmailTakenByOther(email string, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("email = ? AND id <> ?", email, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email %s: %w", email, err)
	}
	return count > 0, nil
}
