package model

import (
	"fmt"
	"strings"
)

// Category is the closed set of categories a transaction can be assigned to.
type Category string

// Category constants.
const (
	CategoryRevenue              Category = "Revenue"
	CategorySalaries             Category = "Salaries"
	CategoryRent                 Category = "Rent"
	CategorySoftware             Category = "Software"
	CategoryUtilities            Category = "Utilities"
	CategoryMarketing            Category = "Marketing"
	CategoryTravel               Category = "Travel"
	CategoryEquipment            Category = "Equipment"
	CategoryOfficeSupplies       Category = "Office Supplies"
	CategoryProfessionalServices Category = "Professional Services"
	CategoryTaxes                Category = "Taxes"
	CategoryBankFees             Category = "Bank Fees"
	CategoryInsurance            Category = "Insurance"
	CategoryLoanRepayment        Category = "Loan Repayment"
	CategoryRepairsMaintenance   Category = "Repairs & Maintenance"
	CategoryDeposits             Category = "Deposits"
	CategoryEvents               Category = "Events"
	CategoryTransfers            Category = "Transfers"
	CategoryUncategorized        Category = "Uncategorized"
)

// CategoryInfo describes the defaults attached to a category.
type CategoryInfo struct {
	DefaultFrequency Frequency
	Name             Category
	Recurring        bool
}

var categoryTable = map[Category]CategoryInfo{
	CategoryRevenue:              {Name: CategoryRevenue, Recurring: false},
	CategorySalaries:             {Name: CategorySalaries, Recurring: true, DefaultFrequency: FrequencyMonthly},
	CategoryRent:                 {Name: CategoryRent, Recurring: true, DefaultFrequency: FrequencyMonthly},
	CategorySoftware:             {Name: CategorySoftware, Recurring: true, DefaultFrequency: FrequencyMonthly},
	CategoryUtilities:            {Name: CategoryUtilities, Recurring: true, DefaultFrequency: FrequencyMonthly},
	CategoryMarketing:            {Name: CategoryMarketing, Recurring: false},
	CategoryTravel:               {Name: CategoryTravel, Recurring: false},
	CategoryEquipment:            {Name: CategoryEquipment, Recurring: false},
	CategoryOfficeSupplies:       {Name: CategoryOfficeSupplies, Recurring: false},
	CategoryProfessionalServices: {Name: CategoryProfessionalServices, Recurring: false},
	CategoryTaxes:                {Name: CategoryTaxes, Recurring: true, DefaultFrequency: FrequencyQuarterly},
	CategoryBankFees:             {Name: CategoryBankFees, Recurring: true, DefaultFrequency: FrequencyMonthly},
	CategoryInsurance:            {Name: CategoryInsurance, Recurring: true, DefaultFrequency: FrequencyYearly},
	CategoryLoanRepayment:        {Name: CategoryLoanRepayment, Recurring: true, DefaultFrequency: FrequencyMonthly},
	CategoryRepairsMaintenance:   {Name: CategoryRepairsMaintenance, Recurring: false},
	CategoryDeposits:             {Name: CategoryDeposits, Recurring: false},
	CategoryEvents:               {Name: CategoryEvents, Recurring: false},
	CategoryTransfers:            {Name: CategoryTransfers, Recurring: false},
	CategoryUncategorized:        {Name: CategoryUncategorized, Recurring: false},
}

// Info returns the table entry for the category.
func (c Category) Info() CategoryInfo {
	if info, ok := categoryTable[c]; ok {
		return info
	}
	return categoryTable[CategoryUncategorized]
}

// IsRecurring reports whether the category is typically recurring.
func (c Category) IsRecurring() bool {
	return c.Info().Recurring
}

// Valid reports whether c is a member of the category set.
func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory converts a user supplied string into a Category.
// Matching is case-insensitive.
func ParseCategory(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	for c := range categoryTable {
		if strings.EqualFold(string(c), trimmed) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// AllCategories returns every category in a stable order.
func AllCategories() []Category {
	return []Category{
		CategoryRevenue,
		CategorySalaries,
		CategoryRent,
		CategorySoftware,
		CategoryUtilities,
		CategoryMarketing,
		CategoryTravel,
		CategoryEquipment,
		CategoryOfficeSupplies,
		CategoryProfessionalServices,
		CategoryTaxes,
		CategoryBankFees,
		CategoryInsurance,
		CategoryLoanRepayment,
		CategoryRepairsMaintenance,
		CategoryDeposits,
		CategoryEvents,
		CategoryTransfers,
		CategoryUncategorized,
	}
}
