// Package domain define contratos e tipos de domínio do controle de admissão.
//
// Este pacote não depende de nenhuma implementação concreta (stores, redis,
// token bucket). A intenção é permitir testes de unidade puros e desacoplar as
// regras de decisão de detalhes de infraestrutura.
package domain
