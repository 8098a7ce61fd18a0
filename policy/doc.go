// Package policy provides optional declarative rules that can be applied on
// top of a running onboarding engine – for example to require confirmation
// for selected state transitions or to block them outright.
package policy
