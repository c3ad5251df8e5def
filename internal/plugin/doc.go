// Package plugin wires extension actions and signals into the hub through an
// explicit compiled-in catalog. Config names the plugins to load; an unknown
// name fails startup instead of surfacing at dispatch time.
package plugin
