package models

import (
	"fmt"
	"log"
	"os"
	"sort"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
Schema tooling.

Migrate is run by the database connector every time a connection is
established. The two helpers below are one-shot process modes selected in
main.go:

  GENERATE_MODELS=true         migrate, print the column report, then write
                               typed query code to ./generated with gorm/gen
  GENERATE_COLUMN_REPORT=true  print the column report only

The column report lists columns present in the database that no model field
maps to, e.g. leftovers from an older schema:

	--- Table: projects ---
	Found 1 columns not accounted for in model:
	  - legacy_slug
*/

// AllModels lists every persisted record type.
func AllModels() []interface{} {
	return []interface{}{&Project{}, &Visitor{}, &Contact{}}
}

// Migrate creates or alters tables for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func GenerateModels(db *gorm.DB) {
	if err := db.Exec("SELECT 1").Error; err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	verbose := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			LogLevel: logger.Info,
			Colorful: true,
		},
	)
	db = db.Session(&gorm.Session{
		Logger:                 verbose,
		SkipDefaultTransaction: true,
	})

	fmt.Println("Migrating models...")
	if err := Migrate(db); err != nil {
		fmt.Printf("Error during models migration: %v\n", err)
		os.Exit(1)
	}

	GenerateColumnMismatchReport(db)

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(AllModels()...)
	g.Execute()
	fmt.Println("Model generation complete!")
}

// GenerateColumnMismatchReport prints, per table, database columns that no
// model field maps to.
func GenerateColumnMismatchReport(db *gorm.DB) {
	fmt.Println("=== COLUMN MISMATCH REPORT ===")

	total := 0
	for _, model := range AllModels() {
		report, err := ColumnMismatches(db, model)
		if err != nil {
			fmt.Printf("\n%v\n", err)
			continue
		}

		fmt.Printf("\n--- Table: %s ---\n", report.Table)
		if !report.Exists {
			fmt.Println("Table does not exist yet (will be created during migration)")
			continue
		}
		if len(report.Unmapped) == 0 {
			fmt.Println("All columns are accounted for in the model.")
			continue
		}
		fmt.Printf("Found %d columns not accounted for in model:\n", len(report.Unmapped))
		for _, col := range report.Unmapped {
			fmt.Printf("  - %s\n", col)
		}
		total += len(report.Unmapped)
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Total mismatched columns across all tables: %d\n", total)
}

type ColumnReport struct {
	Table    string
	Exists   bool
	Unmapped []string
}

// ColumnMismatches compares the live table for model with the columns gorm
// derives from its struct tags.
func ColumnMismatches(db *gorm.DB, model interface{}) (ColumnReport, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return ColumnReport{}, fmt.Errorf("parse model %T: %w", model, err)
	}
	report := ColumnReport{Table: stmt.Schema.Table}

	migrator := db.Migrator()
	if !migrator.HasTable(model) {
		return report, nil
	}
	report.Exists = true

	columns, err := migrator.ColumnTypes(model)
	if err != nil {
		return report, fmt.Errorf("columns for table %s: %w", report.Table, err)
	}

	for _, col := range columns {
		if _, ok := stmt.Schema.FieldsByDBName[col.Name()]; !ok {
			report.Unmapped = append(report.Unmapped, col.Name())
		}
	}
	sort.Strings(report.Unmapped)
	return report, nil
}
