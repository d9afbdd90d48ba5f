package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// InitDatabase creates the database schema from scratch
// This is POC-friendly: auto-creates tables on startup
// Set DROP_TABLES_ON_STARTUP=true environment variable to drop existing tables
func InitDatabase(db *sql.DB) error {
	if os.Getenv("DROP_TABLES_ON_STARTUP") == "true" {
		log.Println("Dropping existing tables (DROP_TABLES_ON_STARTUP=true)...")
		for _, table := range []string{"notifications", "messages", "alert_thresholds", "glucose_readings", "patients"} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table + " CASCADE"); err != nil {
				log.Printf("Warning: Failed to drop %s table: %v", table, err)
			}
		}
	} else {
		log.Println("Skipping table drop (set DROP_TABLES_ON_STARTUP=true to drop tables on startup)")
	}

	log.Println("Creating patients table...")
	patientsSchema := `
	CREATE TABLE IF NOT EXISTS patients (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL,
		doctor_user_id UUID NOT NULL,
		due_date TIMESTAMP,
		pregnancy_week INTEGER NOT NULL DEFAULT 0,
		onboarding_completed BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP DEFAULT now()
	);`

	if _, err := db.Exec(patientsSchema); err != nil {
		return fmt.Errorf("failed to create patients table: %w", err)
	}

	log.Println("Creating glucose_readings table...")
	readingsSchema := `
	CREATE TABLE IF NOT EXISTS glucose_readings (
		id UUID PRIMARY KEY,
		patient_id UUID NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		level NUMERIC NOT NULL,
		type TEXT NOT NULL,
		note TEXT,
		status TEXT NOT NULL DEFAULT 'NORMAL',
		timestamp TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT now(),
		CONSTRAINT chk_reading_level CHECK (level > 0 AND level <= 600),
		CONSTRAINT chk_reading_type CHECK (type IN (
			'BEFORE_BREAKFAST', 'AFTER_BREAKFAST',
			'BEFORE_LUNCH', 'AFTER_LUNCH',
			'BEFORE_DINNER', 'AFTER_DINNER'
		))
	);`

	if _, err := db.Exec(readingsSchema); err != nil {
		return fmt.Errorf("failed to create glucose_readings table: %w", err)
	}

	log.Println("Creating alert_thresholds table...")
	thresholdsSchema := `
	CREATE TABLE IF NOT EXISTS alert_thresholds (
		patient_id UUID PRIMARY KEY REFERENCES patients(id) ON DELETE CASCADE,
		hyperglycemia_before_meal NUMERIC NOT NULL,
		hyperglycemia_after_meal NUMERIC NOT NULL,
		hyperglycemia_major NUMERIC NOT NULL,
		hypoglycemia NUMERIC NOT NULL,
		hypoglycemia_major NUMERIC NOT NULL,
		frequent_threshold INTEGER NOT NULL,
		updated_at TIMESTAMP DEFAULT now()
	);`

	if _, err := db.Exec(thresholdsSchema); err != nil {
		return fmt.Errorf("failed to create alert_thresholds table: %w", err)
	}

	log.Println("Creating messages table...")
	messagesSchema := `
	CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		sender_user_id UUID NOT NULL,
		recipient_user_id UUID NOT NULL,
		body TEXT NOT NULL,
		read BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP DEFAULT now()
	);`

	if _, err := db.Exec(messagesSchema); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}

	log.Println("Creating notifications table...")
	notificationsSchema := `
	CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		recipient_user_id UUID NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		read BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP DEFAULT now()
	);`

	if _, err := db.Exec(notificationsSchema); err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_patients_user_id ON patients(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_patients_doctor_user_id ON patients(doctor_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_readings_patient_id ON glucose_readings(patient_id)",
		"CREATE INDEX IF NOT EXISTS idx_readings_timestamp ON glucose_readings(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_readings_status ON glucose_readings(status)",
		"CREATE INDEX IF NOT EXISTS idx_readings_type ON glucose_readings(type)",
		"CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read)",
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
		}
	}

	log.Println("Database schema initialized successfully")
	return nil
}

// ConnectDatabase establishes a connection to PostgreSQL with retry logic
func ConnectDatabase(databaseURL string, maxRetries int, retryDelay time.Duration) (*sql.DB, error) {
	var db *sql.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			log.Printf("Failed to open database connection (attempt %d/%d): %v", i+1, maxRetries, err)
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
		}

		if err = db.Ping(); err != nil {
			log.Printf("Failed to ping database (attempt %d/%d): %v", i+1, maxRetries, err)
			db.Close()
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", maxRetries, err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		log.Println("Database connection established successfully")
		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database: %w", err)
}
