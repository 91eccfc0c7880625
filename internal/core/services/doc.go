// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// DocumentStore and VectorIndex hold the corpus; SearchService ranks over
// both; IndexService and ImportService keep them populated.
package services
