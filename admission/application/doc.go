// Package application contém os casos de uso do controle de admissão: o
// Manager (ciclo de vida de uma tentativa, com um gate exclusivo por
// boundary), o Registry de estratégias e o Handle de liberação idempotente.
//
// Ele depende apenas do pacote domain e não conhece implementações concretas
// de store nem de estatística.
package application
