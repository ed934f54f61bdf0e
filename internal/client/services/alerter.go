package services

import "context"

// Alerter shows a blocking notice to the user.
type Alerter interface {
	Alert(ctx context.Context, message string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(ctx context.Context, message string)

func (f AlertFunc) Alert(ctx context.Context, message string) { f(ctx, message) }

// IgnoreAlerts drops every alert.
var IgnoreAlerts Alerter = AlertFunc(func(context.Context, string) {})
