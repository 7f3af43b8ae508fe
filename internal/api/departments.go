package api

import (
	"context"

	"github.com/noah-isme/courseforge-portal/internal/models"
)

// Departments wraps the department directory endpoints.
type Departments struct {
	transport Transport
}

// NewDepartments constructs the departments module.
func NewDepartments(transport Transport) *Departments {
	return &Departments{transport: transport}
}

// List returns every department.
func (d *Departments) List(ctx context.Context) ([]models.Department, error) {
	departments := []models.Department{}
	if err := d.transport.Get(ctx, "/departments", nil, &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

// Groups returns the student groups of a department.
func (d *Departments) Groups(ctx context.Context, departmentID uint) ([]models.StudentGroup, error) {
	groups := []models.StudentGroup{}
	if err := d.transport.Get(ctx, idPath("/departments", departmentID, "groups"), nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
