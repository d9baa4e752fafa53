// Package config loads proctor.yaml, the project file that describes a test
// suite run.
//
// A configuration names the directory holding the YAML test cases, the
// global variables every test context starts with, include and exclude
// patterns, the actions run before the suite, between test cases and after
// the suite, and the endpoints and data sources actions talk to:
//
//	name: orders
//	testDir: tests
//	failFast: false
//	variables:
//	  env: staging
//	include: ["Order*"]
//	before:
//	  - type: sql
//	    dataSource: orders-db
//	    statements: ["CREATE TABLE IF NOT EXISTS orders (id INTEGER, state TEXT)"]
//	endpoints:
//	  - name: orders
//	    type: redis
//	    address: localhost:6379
//	    stream: orders
//	dataSources:
//	  - name: orders-db
//	    dsn: file:orders.db
//
// Loading starts from defaults, overlays the file and validates the result.
// Validation problems are reported together as a
// ConfigurationErrorCollection so a user sees every mistake at once.
package config
