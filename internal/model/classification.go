// Package model defines the core domain models used throughout the application.
package model

// ExpenseType distinguishes one-off spend from recurring spend.
type ExpenseType string

// Expense type constants.
const (
	ExpenseOneTime   ExpenseType = "one-time"
	ExpenseRecurring ExpenseType = "recurring"
)

// Frequency is the cadence of a recurring transaction. The empty value means none.
type Frequency string

// Frequency constants.
const (
	FrequencyNone      Frequency = ""
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ReviewReason explains why a transaction sits in the review queue.
type ReviewReason string

// Review reason constants.
const (
	ReasonNone               ReviewReason = ""
	ReasonLowConfidence      ReviewReason = "low_confidence"
	ReasonUnclearDescription ReviewReason = "unclear_description"
	ReasonNoMatch            ReviewReason = "no_match"
	ReasonMultipleMatches    ReviewReason = "multiple_matches"
	ReasonUserRejected       ReviewReason = "user_rejected"
)

// ReviewStatus is the state of a transaction in the review queue.
type ReviewStatus string

// Review status constants. ReviewNone means the transaction never entered the queue.
const (
	ReviewNone          ReviewStatus = ""
	ReviewPending       ReviewStatus = "pending"
	ReviewApproved      ReviewStatus = "approved"
	ReviewRejected      ReviewStatus = "rejected"
	ReviewRecategorized ReviewStatus = "recategorized"
	ReviewMatched       ReviewStatus = "matched"
)

// Terminal reports whether no further review action may be applied.
func (s ReviewStatus) Terminal() bool {
	switch s {
	case ReviewApproved, ReviewRecategorized, ReviewMatched:
		return true
	}
	return false
}

// ClassificationSource names the rule that produced a classification.
type ClassificationSource string

// Classification source constants.
const (
	SourceOneTimeKeyword   ClassificationSource = "one_time_keyword"
	SourceRecurringKeyword ClassificationSource = "recurring_keyword"
	SourceVendorMapping    ClassificationSource = "vendor_mapping"
	SourcePatternMapping   ClassificationSource = "pattern_mapping"
	SourceHistory          ClassificationSource = "history"
	SourceCategoryDefault  ClassificationSource = "category_default"
	SourceIntervalAnalysis ClassificationSource = "interval_analysis"
	SourceAmountHeuristic  ClassificationSource = "amount_heuristic"
	SourceFallback         ClassificationSource = "fallback"
	SourceUser             ClassificationSource = "user"
)

// CategoryResult is the outcome of the category cascade.
type CategoryResult struct {
	Category   Category
	Source     ClassificationSource
	Reason     string
	Confidence int
}

// ExpenseResult is the outcome of the expense-type cascade.
type ExpenseResult struct {
	Type       ExpenseType
	Frequency  Frequency
	Source     ClassificationSource
	Reason     string
	Confidence int
}
