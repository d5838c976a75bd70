// Package builtin contains the per-field cleaning and encoding rules applied
// to encounter records. Each rule is a small Transformer that mutates records
// in place and maps anything outside its declared domain to missing.
package builtin

// CounterFields are the clinical counters coerced to integers.
var CounterFields = []string{
	"time_in_hospital",
	"num_lab_procedures",
	"num_procedures",
	"num_medications",
	"number_outpatient",
	"number_emergency",
	"number_inpatient",
	"number_diagnoses",
}

// IDFields are forced to text representation so identifiers keep leading
// characters and join keys stay stable.
var IDFields = []string{
	"encounter_id",
	"patient_nbr",
	"admission_type_id",
	"discharge_disposition_id",
	"admission_source_id",
}

// DiagnosisFields are the three diagnosis-code columns.
var DiagnosisFields = []string{"diag_1", "diag_2", "diag_3"}

// MedicationFields are the diabetes medication status columns.
var MedicationFields = []string{
	"metformin", "repaglinide", "nateglinide", "chlorpropamide",
	"glimepiride", "acetohexamide", "glipizide", "glyburide",
	"tolbutamide", "pioglitazone", "rosiglitazone", "acarbose",
	"miglitol", "troglitazone", "tolazamide", "examide",
	"citoglipton", "insulin", "glyburide-metformin",
	"glipizide-metformin", "glimepiride-pioglitazone",
	"metformin-rosiglitazone", "metformin-pioglitazone",
}

// LabFields are the two lab-result columns.
var LabFields = []string{"A1Cresult", "max_glu_serum"}

// ActiveMedCountField holds the derived per-row count of active medications.
const ActiveMedCountField = "num_active_diabetes_meds"
