// Package batch verifies many HL7v2 message files concurrently.
//
// Every file is parsed by both engines and must serialize back to its own
// text with line endings normalized to the segment terminator. Files that
// pass can optionally be rewritten in normalized form. The runner records
// counts and latencies on a private prometheus registry that can be written
// out for the node exporter's textfile collector.
package batch
