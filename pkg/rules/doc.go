// Package rules holds the in-memory rule model for the initialization-order
// validator and loads it from a declarative rule file.
//
// A rule file has two lists:
//
//	{
//	  "rules": [
//	    {
//	      "resource": "I2C",
//	      "init_functions": ["Wire.begin"],
//	      "forbidden_before_init": ["Wire."],
//	      "fatal": true,
//	      "impact": "Bus hangs on boot",
//	      "description": "Wire used before Wire.begin()"
//	    }
//	  ],
//	  "project_specific_rules": [
//	    {
//	      "name": "boot-order",
//	      "enforced_order": ["Serial.begin", "Wire.begin"],
//	      "fatal": false,
//	      "impact": "Early logging is lost"
//	    }
//	  ]
//	}
//
// The same structure may be written in YAML. Rules are opaque data: nothing
// in the engine is keyed on a particular resource name.
package rules
