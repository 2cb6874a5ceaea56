// Package services implements the core application logic: indexing,
// retrieval, generation orchestration and citation processing. Each
// service depends only on domain types and ports.
package services
