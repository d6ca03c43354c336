package config

import (
	"log"
	"os"

	"agrofresh-gh/internal/adapters/persistence/models"
	"agrofresh-gh/internal/pkg/password"

	"gorm.io/gorm"
)

// defaultSettings are created once so the admin console always has something
// to render.
var defaultSettings = map[string]string{
	"platform_name":     "AgroFresh GH",
	"currency":          "GHS",
	"commission_rate":   "5",
	"delivery_base_fee": "15",
	"support_email":     "support@agrofresh-gh.com",
}

// SeedDefaults seeds the default admin account and platform settings
func SeedDefaults(db *gorm.DB) error {
	log.Println("🌱 Running database seeders...")

	if err := seedAdminUser(db); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	if err := seedPlatformSettings(db); err != nil {
		log.Printf("⚠️ Settings seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds the default admin user for development.
// In production, set ADMIN_EMAIL/ADMIN_PASSWORD or create the account
// through a secure process.
func seedAdminUser(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@agrofresh-gh.com"
	}
	plain := os.Getenv("ADMIN_PASSWORD")
	if plain == "" {
		plain = "admin123456"
	}

	hashedPassword, err := password.Hash(plain)
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:     "Platform Admin",
		Email:    email,
		Role:     models.RoleAdmin,
		Password: hashedPassword,
		Location: "Accra",
		Status:   models.UserStatusActive,
	}

	if err := db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Email)
	return nil
}

// seedPlatformSettings inserts any missing default settings
func seedPlatformSettings(db *gorm.DB) error {
	for key, value := range defaultSettings {
		var count int64
		db.Model(&models.PlatformSetting{}).Where("`key` = ?", key).Count(&count)
		if count > 0 {
			continue
		}

		setting := &models.PlatformSetting{Key: key, Value: value}
		if err := db.Create(setting).Error; err != nil {
			return err
		}
	}

	return nil
}
