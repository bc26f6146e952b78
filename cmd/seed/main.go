package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"gatepass/internal/bookings"
	"gatepass/internal/passes"
	"gatepass/internal/places"
	"gatepass/internal/shared/config"
	"gatepass/internal/shared/database"
	"gatepass/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting GatePass Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"passes",
		"bookings",
		"places",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	userIDs, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	placeIDs, err := s.SeedPlaces(userIDs)
	if err != nil {
		return fmt.Errorf("failed to seed places: %w", err)
	}

	if err := s.SeedBookings(userIDs, placeIDs); err != nil {
		return fmt.Errorf("failed to seed bookings: %w", err)
	}

	// Clear Redis cache to ensure fresh state
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedUsers creates 1 admin, 2 hosts and 2 visitors
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uuid.UUID)

	// Hash password for all users (using "qwerty")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"admin", "Admin", "User", "admin@gatepass.app", users.RoleAdmin},
		{"host1", "Hana", "Okafor", "hana.okafor@gatepass.app", users.RoleHost},
		{"host2", "Marco", "Silva", "marco.silva@gatepass.app", users.RoleHost},
		{"visitor1", "Vera", "Lindqvist", "vera.lindqvist@gmail.com", users.RoleVisitor},
		{"visitor2", "Tomas", "Adeyemi", "tomas.adeyemi@gmail.com", users.RoleVisitor},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashedPassword),
			Role:      userData.role,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedPlaces creates places with varied refund policies
func (s *Seeder) SeedPlaces(userIDs map[string]uuid.UUID) (map[string]uuid.UUID, error) {
	fmt.Println("  🏛️ Seeding places...")

	placeIDs := make(map[string]uuid.UUID)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	placesData := []struct {
		key                string
		hostKey            string
		name               string
		description        string
		address            string
		startOffset        int // days from today
		durationDays       int
		dailyCapacity      int
		pricePerGuest      int64
		refundable         bool
		beforeVisitPercent int
		sameDayPercent     int
	}{
		{
			"garden", "host1", "Botanical Night Garden",
			"Evening light installations across the botanical gardens.",
			"14 Parkveien, Oslo",
			7, 21, 200, 4500, true, 80, 50,
		},
		{
			"workshop", "host1", "Ceramics Weekend Workshop",
			"Hands-on wheel throwing for beginners. Materials included.",
			"3 Keramikkgata, Oslo",
			14, 2, 12, 89000, true, 90, 60,
		},
		{
			"rooftop", "host2", "Rooftop Jazz Sessions",
			"Live trio sets at sunset. Tickets are final sale.",
			"88 Havnegata, Bergen",
			3, 30, 60, 25000, false, 0, 0,
		},
		{
			"openday", "host2", "Harbor Museum Open Day",
			"Free community open day at the harbor museum.",
			"1 Museumsplassen, Bergen",
			10, 1, 500, 0, true, 80, 50,
		},
	}

	for _, placeData := range placesData {
		place := places.Place{
			ID:                 uuid.New(),
			HostID:             userIDs[placeData.hostKey],
			Name:               placeData.name,
			Description:        placeData.description,
			Address:            placeData.address,
			StartDate:          today.AddDate(0, 0, placeData.startOffset),
			EndDate:            today.AddDate(0, 0, placeData.startOffset+placeData.durationDays-1),
			DailyCapacity:      placeData.dailyCapacity,
			PricePerGuest:      placeData.pricePerGuest,
			Refundable:         placeData.refundable,
			BeforeVisitPercent: placeData.beforeVisitPercent,
			SameDayPercent:     placeData.sameDayPercent,
			BookingEnabled:     true,
			Status:             places.StatusActive,
			CreatedAt:          time.Now(),
			UpdatedAt:          time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&place).Error; err != nil {
			return nil, fmt.Errorf("failed to create place %s: %w", place.Name, err)
		}

		placeIDs[placeData.key] = place.ID
		fmt.Printf("    ✅ Created place: %s (refundable=%v)\n", place.Name, place.Refundable)
	}

	return placeIDs, nil
}

// SeedBookings creates one confirmed booking with approved passes so the
// cancellation and scan flows are exercisable immediately after seeding.
func (s *Seeder) SeedBookings(userIDs, placeIDs map[string]uuid.UUID) error {
	fmt.Println("  🎟️ Seeding bookings...")

	var place places.Place
	if err := s.db.PostgreSQL.First(&place, "id = ?", placeIDs["garden"]).Error; err != nil {
		return fmt.Errorf("failed to load seeded place: %w", err)
	}

	visitDate := place.StartDate.AddDate(0, 0, 1)
	now := time.Now()
	snapshotAt := now

	booking := bookings.Booking{
		ID:            uuid.New(),
		VisitorID:     userIDs["visitor1"],
		PlaceID:       place.ID,
		VisitDate:     visitDate,
		GuestCount:    2,
		TotalAmount:   2 * place.PricePerGuest,
		Status:        bookings.StatusConfirmed,
		PaymentStatus: passes.PaymentPaid,
		RefundStatus:  bookings.RefundNone,
		BookingRef:    "GP-SEED000001",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.db.PostgreSQL.Create(&booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	guests := []struct {
		name  string
		email string
	}{
		{"Vera Lindqvist", "vera.lindqvist@gmail.com"},
		{"Ida Lindqvist", "ida.lindqvist@gmail.com"},
	}

	for i, guest := range guests {
		pass := passes.Pass{
			ID:            uuid.New(),
			BookingID:     booking.ID,
			PlaceID:       place.ID,
			HostID:        place.HostID,
			VisitorID:     booking.VisitorID,
			GuestName:     guest.name,
			GuestEmail:    guest.email,
			VisitDate:     visitDate,
			SlotNumber:    i + 1,
			QRToken:       randomToken(),
			QRActive:      true,
			Status:        passes.StatusApproved,
			AmountPaid:    place.PricePerGuest,
			PaymentStatus: passes.PaymentPaid,
			RefundStatus:  passes.RefundNone,
			Policy: passes.RefundPolicySnapshot{
				Refundable:         place.Refundable,
				BeforeVisitPercent: place.BeforeVisitPercent,
				SameDayPercent:     place.SameDayPercent,
			},
			PolicySnapshotAt: &snapshotAt,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		if err := s.db.PostgreSQL.Create(&pass).Error; err != nil {
			return fmt.Errorf("failed to create pass for %s: %w", guest.name, err)
		}

		fmt.Printf("    ✅ Created pass: %s (slot %d)\n", guest.name, pass.SlotNumber)
	}

	fmt.Printf("    ✅ Created booking: %s (%d guests)\n", booking.BookingRef, booking.GuestCount)
	return nil
}

func randomToken() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
