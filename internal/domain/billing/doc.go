// Package billing implements the meter usage calculation bounded context for
// rented photocopier/printer machines.
//
// A machine carries one cumulative copy counter per paper size (A3/A4/A5) and
// channel (black-and-white, color, color-scanning). Billing a cycle means taking
// the counter baselines snapshotted at the previous cycle (MeterConfig), the
// freshly reported counters (MeterReading), and the configured per-copy rates and
// free-copy allowances, and turning them into a charge per channel, a total per
// machine, and tax-inclusive invoice totals with sales commission.
//
// Key Value Objects:
//   - MeterConfig / MeterReading: canonical counter snapshots, one per machine
//   - ProductUsage: per-machine billing outcome with a per-channel breakdown
//   - InvoiceTotals: subtotal, tax, grand total and commission for a set of lines
//
// All computations are pure functions of their inputs. Inconsistent counters
// (a new count below its baseline, negative inputs) never fail the computation;
// they charge zero and attach a MeterWarning for the operator to confirm.
package billing
