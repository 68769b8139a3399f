// Package allocation turns aggregate export and import totals into bilateral
// trade flows.
//
// Every strategy guarantees the export side exactly: the flows of an exporter
// always sum to its supply, enforced by the correction pass (Correct). The
// import side matches demand only in balanced years; otherwise importers absorb
// the difference. Proportional is the deterministic default; LargestRemaining
// and RandomChunk reproduce alternative heuristics and are selected through
// Config. Verify reports how far importer totals drift from demand.
package allocation
