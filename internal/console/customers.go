package console

import (
	"context"
	"strings"

	"loan-console/internal/common/errors"
	"loan-console/internal/common/logger"
	"loan-console/internal/models"
	"loan-console/internal/render"
)

// Directory is the part of the backend that finds customers and their loans.
type Directory interface {
	SearchCustomers(ctx context.Context, q models.CustomerSearch) (models.Page[models.Customer], error)
	CustomerLoans(ctx context.Context, customerID string, page, pageSize int) (models.Page[models.Loan], error)
}

// CustomerScreen searches customers and lists a customer's loans.
type CustomerScreen struct {
	directory Directory
	pageSize  int
	out       *Output
	log       logger.Logger
}

func NewCustomerScreen(directory Directory, pageSize int, out *Output, log logger.Logger) *CustomerScreen {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &CustomerScreen{
		directory: directory,
		pageSize:  pageSize,
		out:       out,
		log:       log.WithFields(map[string]interface{}{"screen": "customers"}),
	}
}

// Search shows one page of customers whose name matches name. An empty
// name lists all customers.
func (s *CustomerScreen) Search(ctx context.Context, name string, page int) (models.Page[models.Customer], error) {
	if page < 1 {
		page = 1
	}
	result, err := s.directory.SearchCustomers(ctx, models.CustomerSearch{
		PageNumber: page,
		PageSize:   s.pageSize,
		FullName:   strings.TrimSpace(name),
	})
	if err != nil {
		report(s.out, s.log, "Error searching customers", err)
		return models.Page[models.Customer]{}, err
	}
	s.out.Show(render.Customers(result, page, s.pageSize))
	return result, nil
}

// Loans shows one page of a customer's loans.
func (s *CustomerScreen) Loans(ctx context.Context, customerID string, page int) (models.Page[models.Loan], error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		err := errors.NewValidationError("customerId", "Customer ID is required.")
		report(s.out, s.log, "", err)
		return models.Page[models.Loan]{}, err
	}
	if page < 1 {
		page = 1
	}
	result, err := s.directory.CustomerLoans(ctx, customerID, page, s.pageSize)
	if err != nil {
		report(s.out, s.log, "Error fetching customer loans", err)
		return models.Page[models.Loan]{}, err
	}
	s.out.Show(render.LoanList(result, page, s.pageSize, "No loans found for this customer."))
	return result, nil
}
