// Package harness runs conformance scenarios against the SCD state store.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema_version: "1.0.0"        # optional, genesis schema version
//	steps:
//	  - store: vendor_a            # optional, defaults to "main"
//	    supersede: { task: draft, debug: null }   # null deletes the key
//	    expect:
//	      - turn == 1
//	      - fields.task == "draft"
//	  - store: vendor_a
//	    export: handoff            # save the exported document in a slot
//	  - store: vendor_b
//	    import: handoff            # import from a slot
//	    expect_import: true
//	  - store: vendor_b
//	    import_document: '{"turn":1,"fields":{},"fingerprint":"ASHA-256:00"}'
//	    expect_import: false
//	  - store: vendor_b
//	    reload: true               # rebuild the store from its backend
//	assertions:
//	  - stores.vendor_a.fingerprint == stores.vendor_b.fingerprint
//
// Every named store is backed by its own session in a fresh in-memory
// SQLite database, so write-through and reload run exactly as they do in
// the CLI. Expectations are expr-lang boolean expressions.
//
// Each step's expressions see the stepped store as turn, fingerprint,
// fields, schema_version, context and history (journal length), plus
// accepted and error from the step itself. Every expression also sees
// stores, a map of all stores by name with the same keys.
package harness
