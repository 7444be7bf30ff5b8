package classification

import "github.com/Veraticus/the-books-must-balance/internal/model"

// DefaultKeywords returns the built-in keyword tables.
func DefaultKeywords() []Keyword {
	keywords := make([]Keyword, 0, 48)
	keywords = append(keywords, oneTimeKeywords()...)
	keywords = append(keywords, recurringKeywords()...)
	keywords = append(keywords, hintKeywords()...)
	return keywords
}

func oneTimeKeywords() []Keyword {
	return []Keyword{
		{
			Name:     "Equipment",
			Kind:     KindOneTime,
			Regex:    `\b(laptop|macbook|desktop|monitor|printer|hardware|furniture|equipment|server purchase)\b`,
			Category: model.CategoryEquipment,
			Priority: 100,
		},
		{
			Name:     "Security Deposit",
			Kind:     KindOneTime,
			Regex:    `\b(security deposit|rental deposit|refundable deposit|deposit paid|earnest money)\b`,
			Category: model.CategoryDeposits,
			Priority: 100,
		},
		{
			Name:     "Events",
			Kind:     KindOneTime,
			Regex:    `\b(conference|offsite|off-site|sponsorship|expo|booth|meetup|event tickets?|team outing)\b`,
			Category: model.CategoryEvents,
			Priority: 90,
		},
		{
			Name:     "Repairs",
			Kind:     KindOneTime,
			Regex:    `\b(repairs?|maintenance|servicing|plumb(er|ing)|electrician|renovation)\b`,
			Category: model.CategoryRepairsMaintenance,
			Priority: 90,
		},
		{
			Name:     "Travel",
			Kind:     KindOneTime,
			Regex:    `\b(flight|airlines?|airways|hotel|booking\.com|airbnb|train ticket)\b`,
			Category: model.CategoryTravel,
			Priority: 80,
		},
		{
			Name:     "Office Supplies",
			Kind:     KindOneTime,
			Regex:    `\b(stationery|office supplies|printer ink|toner)\b`,
			Category: model.CategoryOfficeSupplies,
			Priority: 80,
		},
		{
			Name:     "Professional Services",
			Kind:     KindOneTime,
			Regex:    `\b(legal fees?|attorney|consulting fees?|audit fees?|notary)\b`,
			Category: model.CategoryProfessionalServices,
			Priority: 70,
		},
	}
}

func recurringKeywords() []Keyword {
	return []Keyword{
		{
			Name:      "Payroll",
			Kind:      KindRecurring,
			Regex:     `\b(salary|salaries|payroll|wages|stipend)\b`,
			Category:  model.CategorySalaries,
			Frequency: model.FrequencyMonthly,
			Priority:  100,
		},
		{
			Name:      "Rent",
			Kind:      KindRecurring,
			Regex:     `\b(rent|lease rental|office lease|coworking)\b`,
			Category:  model.CategoryRent,
			Frequency: model.FrequencyMonthly,
			Priority:  95,
		},
		{
			Name:      "Subscription",
			Kind:      KindRecurring,
			Regex:     `\b(subscription|saas|software licen[cs]e|renewal)\b`,
			Category:  model.CategorySoftware,
			Frequency: model.FrequencyMonthly,
			Priority:  90,
		},
		{
			Name:      "Utilities",
			Kind:      KindRecurring,
			Regex:     `\b(electricity|water bill|broadband|internet bill|phone bill|mobile bill|utility)\b`,
			Category:  model.CategoryUtilities,
			Frequency: model.FrequencyMonthly,
			Priority:  85,
		},
		{
			Name:      "Insurance Premium",
			Kind:      KindRecurring,
			Regex:     `\b(insurance|premium)\b`,
			Category:  model.CategoryInsurance,
			Frequency: model.FrequencyYearly,
			Priority:  80,
		},
		{
			Name:      "Loan EMI",
			Kind:      KindRecurring,
			Regex:     `\b(emi|loan repayment|loan instal?lment)\b`,
			Category:  model.CategoryLoanRepayment,
			Frequency: model.FrequencyMonthly,
			Priority:  80,
		},
		{
			Name:      "Taxes",
			Kind:      KindRecurring,
			Regex:     `\b(gst|vat|tds|advance tax|payroll tax|sales tax|irs)\b`,
			Category:  model.CategoryTaxes,
			Frequency: model.FrequencyQuarterly,
			Priority:  105,
		},
		{
			Name:      "Bank Charges",
			Kind:      KindRecurring,
			Regex:     `\b(bank charges?|service charges?|account fee|sms charges)\b`,
			Category:  model.CategoryBankFees,
			Frequency: model.FrequencyMonthly,
			Priority:  75,
		},
	}
}

// hintKeywords are too loose to trust on their own. They only name a bucket
// for the weak default step.
func hintKeywords() []Keyword {
	return []Keyword{
		{Name: "Cloud", Kind: KindHint, Regex: `\b(aws|amazon web|azure|gcp|google cloud|digitalocean|heroku|github|atlassian|slack|zoom|adobe|notion|figma)\b`, Category: model.CategorySoftware},
		{Name: "Power and telecom", Kind: KindHint, Regex: `\b(power|energy|gas|telecom|airtel|vodafone|verizon|comcast|jio)\b`, Category: model.CategoryUtilities},
		{Name: "Landlord", Kind: KindHint, Regex: `\b(landlord|property|realty|estates?)\b`, Category: model.CategoryRent},
		{Name: "Staff", Kind: KindHint, Regex: `\b(staff|employee|contractor|hr)\b`, Category: model.CategorySalaries},
		{Name: "Bank", Kind: KindHint, Regex: `\b(fee|charges?|interest)\b`, Category: model.CategoryBankFees},
		{Name: "Policy", Kind: KindHint, Regex: `\b(policy|cover)\b`, Category: model.CategoryInsurance},
		{Name: "Loan", Kind: KindHint, Regex: `\b(loan|finance)\b`, Category: model.CategoryLoanRepayment},
		{Name: "Tax", Kind: KindHint, Regex: `\b(tax|revenue service)\b`, Category: model.CategoryTaxes},
	}
}
