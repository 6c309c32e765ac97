// Package infra contém as implementações concretas do controle de admissão:
// o store de registros ativos, as estratégias embutidas (single-execution,
// priority, concurrency-limited, group-coordination, composite, rate-limit)
// e os stores de estatística (memória, Redis).
package infra
