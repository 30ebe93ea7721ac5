// Package config loads the merge-rule configuration of a report run.
//
// The configuration is a YAML document listing merge rules in the
// order they are applied:
//
//	mergeRules:
//	  - newName: "{u:1}"
//	    patterns:
//	      url: "^https?://[^/]+/([a-z]+)"
//	    excludePatterns:
//	      name: "^(Login|Logout)"
//	    runTimeRanges: [100, 500, 1000]
//	    stopOnMatch: true
//	    cacheSize: 100
//
// Every pattern is validated against both matching engines at load
// time; a rule that cannot be built aborts loading. There is nothing
// to retry: a bad configuration stays bad.
package config
