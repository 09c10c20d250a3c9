// ABOUTME: mDNS service discovery package
// ABOUTME: Finds and advertises SBC link receivers on the local network
// Package discovery advertises receivers listening on tcp or ws transports
// as _sbclink._tcp services and lets transmitters browse for them.
package discovery
