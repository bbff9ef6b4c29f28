// Package churn turns the four raw telecom tables into one modeling-ready
// feature table: it normalizes column names, cleans each table, resolves
// missing contract expiries, derives active days and merges everything on
// customer_id.
package churn

// Table identifies one of the four raw inputs.
type Table string

const (
	TableContract Table = "contract"
	TableInternet Table = "internet"
	TablePersonal Table = "personal"
	TablePhone    Table = "phone"
)

// Tables lists the inputs in merge order.
var Tables = []Table{TableContract, TablePersonal, TableInternet, TablePhone}

// Normalized column names.
const (
	ColCustomerID = "customer_id"

	ColBeginDate        = "begin_date"
	ColEndDate          = "end_date"
	ColType             = "type"
	ColPaperlessBilling = "paperless_billing"
	ColPaymentMethod    = "payment_method"
	ColMonthlyCharges   = "monthly_charges"
	ColTotalCharges     = "total_charges"

	ColBeginMonth = "begin_month"
	ColBeginYear  = "begin_year"
	ColEndMonth   = "end_month"
	ColEndYear    = "end_year"
	ColIsActive   = "is_active"
	ColActiveDays = "active_days"

	ColGender        = "gender"
	ColSeniorCitizen = "senior_citizen"
	ColPartner       = "partner"
	ColDependents    = "dependents"
	ColIsMale        = "is_male"

	ColInternetService  = "internet_service"
	ColOnlineSecurity   = "online_security"
	ColOnlineBackup     = "online_backup"
	ColDeviceProtection = "device_protection"
	ColTechSupport      = "tech_support"
	ColStreamingTV      = "streaming_tv"
	ColStreamingMovies  = "streaming_movies"
	ColIsFiberOptic     = "is_fiber_optic"

	ColMultipleLines = "multiple_lines"
)

// DefaultDropColumns are removed from the merged table before modeling.
var DefaultDropColumns = []string{ColBeginYear, ColBeginMonth, ColEndMonth, ColEndYear, ColCustomerID}
