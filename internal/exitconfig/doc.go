// Package exitconfig validates untrusted exit configurations.
//
// An exit config is a JSON object of the form
//
//	{
//	  "targets": {"<name>": {"final_url": "...", "tracking_urls": [...], "vars": {...}, "filters": [...]}},
//	  "filters": {"<name>": {"type": "clickDelay", "delay": 1000}}
//	}
//
// [Validate] checks the document field by field and returns an immutable
// [ExitConfig]. Fields the validator does not know about are kept in the
// raw document.
package exitconfig
