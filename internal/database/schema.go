package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the five tables in dependency order.  Table names are
// quoted because `User` and `Reference` collide with SQL keywords.  The
// driver does not run multi-statement strings, so each statement is
// executed on its own.
var schema = []string{
	"CREATE TABLE IF NOT EXISTS `User` (" +
		" id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY," +
		" email VARCHAR(191) NOT NULL," +
		" first_name VARCHAR(100) NOT NULL," +
		" last_name VARCHAR(100) NOT NULL," +
		" active TINYINT(1) NOT NULL DEFAULT 1," +
		" created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP," +
		" UNIQUE KEY uq_user_email (email)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",

	"CREATE TABLE IF NOT EXISTS `Location` (" +
		" id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY," +
		" name VARCHAR(191) NOT NULL," +
		" UNIQUE KEY uq_location_name (name)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",

	"CREATE TABLE IF NOT EXISTS `Applicant` (" +
		" id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY," +
		" email VARCHAR(191) NOT NULL," +
		" name VARCHAR(255) NOT NULL," +
		" address VARCHAR(255) NOT NULL DEFAULT ''," +
		" city VARCHAR(100) NOT NULL DEFAULT ''," +
		" state VARCHAR(100) NOT NULL DEFAULT ''," +
		" zip VARCHAR(20) NOT NULL DEFAULT ''," +
		" phone VARCHAR(50) NOT NULL," +
		" us_citizen TINYINT(1) NOT NULL DEFAULT 0," +
		" felony_conviction TINYINT(1) NOT NULL DEFAULT 0," +
		" felony_explanation TEXT NULL," +
		" dual_relationships ENUM('no','yes','unsure') NOT NULL DEFAULT 'no'," +
		" dual_relationships_explanation TEXT NULL," +
		" interests TEXT NOT NULL," +
		" why_joshua_center TEXT NOT NULL," +
		" ethical_framework_thoughts TEXT NOT NULL," +
		" populations JSON NOT NULL," +
		" education TEXT NOT NULL," +
		" previous_employer VARCHAR(255) NOT NULL DEFAULT ''," +
		" previous_employer_address VARCHAR(255) NOT NULL DEFAULT ''," +
		" previous_employer_city VARCHAR(100) NOT NULL DEFAULT ''," +
		" previous_employer_state VARCHAR(100) NOT NULL DEFAULT ''," +
		" previous_employer_zip VARCHAR(20) NOT NULL DEFAULT ''," +
		" previous_employer_phone VARCHAR(50) NOT NULL DEFAULT ''," +
		" previous_employer_title VARCHAR(255) NOT NULL DEFAULT ''," +
		" previous_employer_length VARCHAR(100) NOT NULL DEFAULT ''," +
		" previous_employer_reason_leaving TEXT NOT NULL," +
		" other_employment TEXT NULL," +
		" languages VARCHAR(255) NOT NULL DEFAULT ''," +
		" gender VARCHAR(100) NOT NULL DEFAULT ''," +
		" race_ethnicity VARCHAR(100) NOT NULL DEFAULT ''," +
		" resume_path VARCHAR(255) NOT NULL," +
		" application_status ENUM('not viewed','in review','accepted','rejected') NOT NULL DEFAULT 'not viewed'," +
		" assigned_employee_id BIGINT UNSIGNED NULL," +
		" created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP," +
		" UNIQUE KEY uq_applicant_email (email)," +
		" CONSTRAINT fk_applicant_employee FOREIGN KEY (assigned_employee_id) REFERENCES `User` (id) ON DELETE RESTRICT" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",

	"CREATE TABLE IF NOT EXISTS `Reference` (" +
		" id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY," +
		" applicant_id BIGINT UNSIGNED NOT NULL," +
		" name VARCHAR(255) NOT NULL," +
		" relationship VARCHAR(255) NOT NULL DEFAULT ''," +
		" phone VARCHAR(50) NOT NULL DEFAULT ''," +
		" email VARCHAR(191) NOT NULL DEFAULT ''," +
		" type ENUM('professional','character','academic','other') NOT NULL," +
		" KEY idx_reference_applicant (applicant_id)," +
		" CONSTRAINT fk_reference_applicant FOREIGN KEY (applicant_id) REFERENCES `Applicant` (id) ON DELETE CASCADE" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",

	"CREATE TABLE IF NOT EXISTS `AppliedLoc` (" +
		" applicant_id BIGINT UNSIGNED NOT NULL," +
		" location_id BIGINT UNSIGNED NOT NULL," +
		" PRIMARY KEY (applicant_id, location_id)," +
		" KEY idx_appliedloc_location (location_id)," +
		" CONSTRAINT fk_appliedloc_applicant FOREIGN KEY (applicant_id) REFERENCES `Applicant` (id) ON DELETE CASCADE," +
		" CONSTRAINT fk_appliedloc_location FOREIGN KEY (location_id) REFERENCES `Location` (id) ON DELETE RESTRICT" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
}

// Migrate creates any missing tables.  Existing tables are left untouched.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
