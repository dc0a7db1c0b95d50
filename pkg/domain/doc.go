// Package domain contains the core entities of the loan pipeline: uploaded
// documents, loan applications and their underwriting outcome, and the credit
// score ledger. The types are free of infrastructure concerns so they can be
// shared by the storage backends, the services and the HTTP adapter.
package domain
