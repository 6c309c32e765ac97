// Package admission fornece controle de admissão in-process para operações
// nomeadas e re-tentáveis: dado um pedido com identidade de ação e um
// boundary (domínio independente de cancelamento), decide se a operação pode
// prosseguir, deve preemptar uma operação ativa ou deve ser rejeitada.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de infra)
//   - application: casos de uso (Manager, Registry, Handle) sem infra
//   - infra: implementações concretas (stores, estratégias, estatística)
//   - admission (este pacote): construção do runtime + instância padrão
//
// Fluxo:
//
//  1. O chamador monta uma Request (actionID, strategyID, payload)
//  2. Manager.Attempt(ctx, boundary, req) serializa decide+commit pelo gate
//     do boundary e retorna o Outcome
//  3. Em admissão, o Outcome carrega um Handle; o chamador invoca
//     Handle.Release() ao terminar (idempotente)
//
// O engine nunca agenda nem executa o trabalho do chamador, apenas o
// porteja. Não é um serviço de lock distribuído: single process, nada é
// persistido entre restarts.
package admission
