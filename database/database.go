package database

import (
	"gorm.io/gorm"
)

type Database struct {
	projectRepo *ProjectRepo
	visitorRepo *VisitorRepo
	contactRepo *ContactRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		projectRepo: NewProjectRepo(db),
		visitorRepo: NewVisitorRepo(db),
		contactRepo: NewContactRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) VisitorRepo() *VisitorRepo {
	return d.visitorRepo
}

func (d Database) ContactRepo() *ContactRepo {
	return d.contactRepo
}
