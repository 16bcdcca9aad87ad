package database

import (
	"errors"

	"github.com/Payphone-Digital/account-service/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultAccount defines the account created on an empty store.
type DefaultAccount struct {
	Name      string
	Email     string
	Password  string
	Cellphone string
}

// GetDefaultAccount returns the seeded account
func GetDefaultAccount() DefaultAccount {
	return DefaultAccount{
		Name:      "Admin",
		Email:     "admin@account.local",
		Password:  "Admin@123", // Change this in production!
		Cellphone: "+10000000000",
	}
}

// Seed creates initial data for the database
func Seed(db *gorm.DB, bcryptCost int) error {
	return SeedUsers(db, bcryptCost)
}

// SeedUsers creates the default account if no active user holds its email
func SeedUsers(db *gorm.DB, bcryptCost int) error {
	account := GetDefaultAccount()

	var existing model.User
	result := db.Where("email = ? AND status = ?", account.Email, model.UserStatusActive).First(&existing)
	if result.Error == nil {
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcryptCost)
	if err != nil {
		return err
	}

	user := model.User{
		Name:      account.Name,
		Email:     account.Email,
		Password:  string(hashed),
		Cellphone: account.Cellphone,
		Status:    model.UserStatusActive,
	}

	return db.Create(&user).Error
}
