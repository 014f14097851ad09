// Package seed loads initial users, groups and devices from a JSON file.
package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/devicewatch/backend/internal/logger"
	"github.com/devicewatch/backend/internal/models"
)

const DefaultPath = "data/initial-users.json"

// UserData represents the structure of users in the JSON file
type UserData struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Role      string   `json:"role"`
	Groups    []string `json:"groups"`
}

// GroupData is a group and the names of the devices in it.
type GroupData struct {
	Name    string   `json:"name"`
	Devices []string `json:"devices"`
}

// Data represents the structure of the seed file
type Data struct {
	Groups []GroupData `json:"groups"`
	Users  []UserData  `json:"users"`
}

// FromFile seeds conn from path, also trying path relative to the repository
// root when run from a cmd directory.
func FromFile(conn *gorm.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil && !filepath.IsAbs(path) {
		raw, err = os.ReadFile(filepath.Join("..", "..", path))
	}
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	data, err := Parse(raw)
	if err != nil {
		return err
	}
	return Apply(conn, data)
}

// Parse decodes a seed file.
func Parse(raw []byte) (*Data, error) {
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	for _, u := range data.Users {
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("invalid seed file: user %q needs an email and a password", u.Email)
		}
	}
	return &data, nil
}

// Apply creates the groups, devices and users that do not exist yet.
func Apply(conn *gorm.DB, data *Data) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		groups := make(map[string]models.Group, len(data.Groups))
		for _, g := range data.Groups {
			group := models.Group{Name: g.Name}
			if err := tx.Where(models.Group{Name: g.Name}).FirstOrCreate(&group).Error; err != nil {
				return fmt.Errorf("failed to create group %s: %w", g.Name, err)
			}
			groups[g.Name] = group

			for _, name := range g.Devices {
				device := models.Device{DeviceName: name, GroupID: group.ID, Active: true}
				if err := tx.Where(models.Device{DeviceName: name, GroupID: group.ID}).FirstOrCreate(&device).Error; err != nil {
					return fmt.Errorf("failed to create device %s: %w", name, err)
				}
			}
		}

		for _, u := range data.Users {
			var existing models.User
			err := tx.Where("email = ?", u.Email).First(&existing).Error
			if err == nil {
				logger.Info("User already exists", map[string]interface{}{"email": u.Email})
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up user %s: %w", u.Email, err)
			}

			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password for %s: %w", u.Email, err)
			}

			user := models.User{
				Email:     u.Email,
				Password:  string(hashedPassword),
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Role:      MapRole(u.Role),
			}
			for _, name := range u.Groups {
				group, ok := groups[name]
				if !ok {
					return fmt.Errorf("user %s references unknown group %s", u.Email, name)
				}
				user.Groups = append(user.Groups, group)
			}

			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", u.Email, err)
			}
			logger.Info("Created user", map[string]interface{}{"email": user.Email, "role": user.Role})
		}
		return nil
	})
}

// MapRole maps seed file roles to user roles. Unknown roles become members.
func MapRole(role string) models.UserRole {
	switch strings.ToLower(role) {
	case "admin":
		return models.RoleAdmin
	case "member", "viewer", "":
		return models.RoleMember
	default:
		logger.Warn("Unknown role, defaulting to member", map[string]interface{}{"role": role})
		return models.RoleMember
	}
}
