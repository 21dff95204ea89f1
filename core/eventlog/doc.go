// Package eventlog records what an osh session did as newline delimited JSON
// and summarizes those logs.
package eventlog
